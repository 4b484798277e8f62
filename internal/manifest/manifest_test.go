package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file with the given name and content under dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_JSONC verifies JSON manifests parse with comments and
// trailing commas present, which plain encoding/json would reject.
func TestLoad_JSONC(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kaji.jsonc", `{
	// project identity
	"name": "forge",
	"script": "build.lua",
	"default": "build",
	"env": {
		"CGO_ENABLED": "0", // keep builds static
	},
}`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "forge", m.Name)
	assert.Equal(t, "build.lua", m.Script)
	assert.Equal(t, "build", m.Default)
	assert.Equal(t, map[string]string{"CGO_ENABLED": "0"}, m.Env)
	assert.Nil(t, m.Sandbox)
}

// TestLoad_YAML verifies YAML manifests parse, including the sandbox
// section with its workdir default.
func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kaji.yaml", `
name: forge
default: test
sandbox:
  image: golang:1.25
  env:
    GOFLAGS: -mod=readonly
`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "forge", m.Name)
	assert.Equal(t, DefaultScript, m.Script, "script should default to kajifile.lua")
	require.NotNil(t, m.Sandbox)
	assert.Equal(t, "golang:1.25", m.Sandbox.Image)
	assert.Equal(t, "/work", m.Sandbox.Workdir, "sandbox workdir should default to /work")
}

// TestLoad_Defaults verifies a minimal manifest picks up the directory
// name as project name and the default script path.
func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kaji.json", `{}`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), m.Name)
	assert.Equal(t, DefaultScript, m.Script)
	assert.Empty(t, m.Default)
}

// TestLoad_SandboxWithoutImage verifies a sandbox section without an
// image is rejected at load time.
func TestLoad_SandboxWithoutImage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kaji.yaml", `
sandbox:
  workdir: /src
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an image")
}

// TestLoad_MalformedJSON verifies parse errors are surfaced, not
// swallowed.
func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kaji.json", `{"name": `)

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoad_UnsupportedExtension verifies unknown formats are rejected
// with a descriptive error.
func TestLoad_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kaji.toml", `name = "forge"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest format")
}

// TestFind_SameDirectory verifies the manifest is found next to the
// starting directory and the project directory points at it.
func TestFind_SameDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kaji.json", `{"name": "here"}`)

	m, projectDir, err := Find(dir)
	require.NoError(t, err)

	assert.Equal(t, "here", m.Name)
	assert.Equal(t, dir, projectDir)
}

// TestFind_WalksUp verifies the search climbs parent directories, the
// way invoking kaji from a subdirectory of a project should work.
func TestFind_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "kaji.yaml", `name: above`)

	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, projectDir, err := Find(nested)
	require.NoError(t, err)

	assert.Equal(t, "above", m.Name)
	assert.Equal(t, root, projectDir)
}

// TestFind_Priority verifies JSON wins over YAML when both are present
// in the same directory.
func TestFind_Priority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kaji.json", `{"name": "json-wins"}`)
	writeFile(t, dir, "kaji.yaml", `name: yaml-loses`)

	m, _, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, "json-wins", m.Name)
}

// TestFind_NoManifest verifies absence yields defaults rather than an
// error, with the starting directory as the project directory.
func TestFind_NoManifest(t *testing.T) {
	dir := t.TempDir()

	m, projectDir, err := Find(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultScript, m.Script)
	assert.Equal(t, dir, projectDir)
}

// TestFind_BrokenManifestIsError verifies a present-but-broken manifest
// stops the search with an error instead of being skipped.
func TestFind_BrokenManifestIsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kaji.json", `{broken`)

	_, _, err := Find(dir)
	assert.Error(t, err)
}

// TestScriptPath covers relative and absolute script resolution.
func TestScriptPath(t *testing.T) {
	m := &Manifest{Script: "build/tasks.lua"}
	assert.Equal(t, filepath.Join("/proj", "build", "tasks.lua"), m.ScriptPath("/proj"))

	m = &Manifest{Script: "/abs/tasks.lua"}
	assert.Equal(t, "/abs/tasks.lua", m.ScriptPath("/proj"))
}

// TestMergedEnv verifies sandbox env entries override top-level ones.
func TestMergedEnv(t *testing.T) {
	m := &Manifest{
		Env: map[string]string{"A": "1", "B": "2"},
		Sandbox: &SandboxConfig{
			Image: "golang:1.25",
			Env:   map[string]string{"B": "override", "C": "3"},
		},
	}

	merged := m.MergedEnv()
	assert.Equal(t, map[string]string{"A": "1", "B": "override", "C": "3"}, merged)
}
