package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildLabels verifies the label map carries the management marker,
// attribution fields, and a UTC RFC3339 timestamp.
func TestBuildLabels(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.FixedZone("JST", 9*3600))

	labels := BuildLabels("forge", "build", createdAt)

	assert.Equal(t, "kaji", labels[LabelManagedBy])
	assert.Equal(t, "forge", labels[LabelProject])
	assert.Equal(t, "build", labels[LabelTask])
	// The timestamp is normalized to UTC before formatting.
	assert.Equal(t, "2026-03-14T00:30:00Z", labels[LabelCreatedAt])
}

// TestParseLabels_RoundTrip verifies BuildLabels output parses back
// into the same metadata.
func TestParseLabels_RoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	labels := BuildLabels("forge", "docs:build", createdAt)

	info, err := ParseLabels(labels)
	require.NoError(t, err)

	assert.Equal(t, "forge", info.Project)
	assert.Equal(t, "docs:build", info.Task)
	assert.True(t, createdAt.Equal(info.CreatedAt))
	assert.Equal(t, labels, info.Labels)
}

// TestParseLabels_MissingRequired verifies all missing labels are
// reported at once for easier debugging.
func TestParseLabels_MissingRequired(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelTask:      "build",
	}

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelProject)
	assert.Contains(t, err.Error(), LabelCreatedAt)
}

// TestParseLabels_WrongManagedBy verifies containers labeled by some
// other tool are rejected rather than claimed.
func TestParseLabels_WrongManagedBy(t *testing.T) {
	labels := BuildLabels("forge", "build", time.Now())
	labels[LabelManagedBy] = "someone-else"

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected value")
}

// TestParseLabels_BadTimestamp verifies malformed timestamps fail
// parsing instead of defaulting silently.
func TestParseLabels_BadTimestamp(t *testing.T) {
	labels := BuildLabels("forge", "build", time.Now())
	labels[LabelCreatedAt] = "yesterday-ish"

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

// TestContainerName verifies names are docker-safe and unique across
// consecutive calls.
func TestContainerName(t *testing.T) {
	name := containerName("docs:build")
	assert.Regexp(t, `^kaji-docs-build-\d+$`, name)

	// Two calls in a row must not collide.
	assert.NotEqual(t, containerName("build"), containerName("build"))
}
