// containers.go implements discovery and cleanup of sandbox containers.
// Containers are normally removed as soon as their command exits, but a
// crashed kaji process can leave them behind; "kaji clean" finds those
// leftovers by label filter and removes them.
package sandbox

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mori-tools/kaji/internal/model"
)

// ListSandboxContainers queries the Docker daemon for all containers
// carrying the "kaji.managed-by=kaji" label, including stopped ones.
// Filtering happens server-side via the Docker API, which is cheaper
// than listing everything and filtering in Go.
func ListSandboxContainers(ctx context.Context, cli *Client) ([]model.SandboxInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.SandboxInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// containerToInfo converts a Docker API container struct to the domain
// SandboxInfo, decoupling callers from the Docker SDK types.
//
// Label parsing is best-effort: a container matched the managed-by
// filter, so it is kaji's to report (and clean) even if some metadata
// labels were stripped by external tooling.
func containerToInfo(c types.Container) model.SandboxInfo {
	// Docker returns container names with a leading "/" that is an API
	// artifact, not meaningful to users.
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	info := model.SandboxInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Status:        c.State,
		Labels:        c.Labels,
	}

	if parsed, err := ParseLabels(c.Labels); err == nil {
		info.Project = parsed.Project
		info.Task = parsed.Task
		info.CreatedAt = parsed.CreatedAt
	}

	return info
}

// RemoveSandboxContainers force-removes the given containers and
// returns how many were removed. The first removal error aborts the
// sweep — a Docker daemon that fails one remove will likely fail the
// rest the same way.
func RemoveSandboxContainers(ctx context.Context, cli *Client, infos []model.SandboxInfo) (int, error) {
	removed := 0
	for _, info := range infos {
		err := cli.Inner().ContainerRemove(ctx, info.ContainerID, container.RemoveOptions{Force: true})
		if err != nil {
			return removed, model.WrapCLIError(
				model.ExitDockerNotRunning,
				"failed to remove container "+info.ContainerName,
				err,
			)
		}
		removed++
	}
	return removed, nil
}
