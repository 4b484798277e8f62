package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/mori-tools/kaji/internal/model"
)

// Label key constants define the Docker label keys applied to sandbox
// containers. The labels are the sole record of which containers kaji
// created — "kaji clean" discovers leftovers by label filter alone.
//
// All keys share the "kaji." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all kaji labels.
	LabelPrefix = "kaji."

	// LabelManagedBy identifies containers created by kaji.
	// Key: "kaji.managed-by", Value: always "kaji".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelProject stores the project name from the manifest.
	// Key: "kaji.project", Value: project name (e.g., "forge").
	LabelProject = LabelPrefix + "project"

	// LabelTask stores the task whose command ran in the container.
	// Key: "kaji.task", Value: task name (e.g., "build").
	LabelTask = LabelPrefix + "task"

	// LabelCreatedAt stores the container creation timestamp.
	// Key: "kaji.created-at", Value: RFC3339 formatted timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "kaji"

// BuildLabels constructs the Docker label map applied to a sandbox
// container. The labels make every kaji container discoverable and
// attributable without any external state file.
func BuildLabels(project, taskName string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelProject:   project,
		LabelTask:      taskName,
		// RFC3339 in UTC keeps timestamps comparable regardless of the
		// host machine's timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs sandbox metadata from Docker container labels.
// This is the inverse of BuildLabels, used by "kaji clean" when listing
// leftover containers.
//
// Required labels: managed-by, project, task, created-at. Missing
// required labels cause an error listing all of them at once, for
// easier debugging than failing on the first.
func ParseLabels(labels map[string]string) (*model.SandboxInfo, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelProject,
		LabelTask,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &model.SandboxInfo{
		Project:   labels[LabelProject],
		Task:      labels[LabelTask],
		CreatedAt: createdAt,
		Labels:    labels,
	}, nil
}
