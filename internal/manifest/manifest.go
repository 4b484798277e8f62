package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultScript is the build script filename used when no manifest
// names one.
const DefaultScript = "kajifile.lua"

// candidates lists the manifest filenames probed by Find, in priority
// order. JSON variants win over YAML when both exist in one directory.
var candidates = []string{"kaji.json", "kaji.jsonc", "kaji.yaml", "kaji.yml"}

// Manifest is the parsed project manifest. Field tags cover both JSON
// and YAML so one struct serves both formats.
type Manifest struct {
	// Name is the project name, used in sandbox container labels.
	// Defaults to the manifest directory's base name when empty.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Script is the build script path, relative to the manifest
	// directory. Defaults to kajifile.lua.
	Script string `json:"script,omitempty" yaml:"script,omitempty"`

	// Default is the task run by "kaji run" without arguments.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	// Env holds extra environment variables for sh() commands.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Sandbox configures containerized command execution. Nil means
	// commands run on the host unless --sandbox forces an image.
	Sandbox *SandboxConfig `json:"sandbox,omitempty" yaml:"sandbox,omitempty"`
}

// SandboxConfig describes the container sandbox for sh() commands.
type SandboxConfig struct {
	// Image is the container image to run commands in. Required when
	// the sandbox section is present.
	Image string `json:"image" yaml:"image"`

	// Workdir is the working directory inside the container.
	// Defaults to /work.
	Workdir string `json:"workdir,omitempty" yaml:"workdir,omitempty"`

	// Env holds extra environment variables for the container,
	// merged over the top-level env map.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Default returns a manifest with all defaults applied and no
// project-specific settings. Used when no manifest file exists.
func Default() *Manifest {
	return &Manifest{Script: DefaultScript}
}

// Find locates the nearest manifest, starting in dir and walking up
// parent directories to the filesystem root. It returns the parsed
// manifest and the directory containing it.
//
// A missing manifest is not an error: Find returns Default() with dir
// itself as the project directory, so callers never branch on absence.
// A manifest that exists but fails to parse IS an error — silently
// ignoring a broken manifest would mask typos in real configuration.
func Find(dir string) (*Manifest, string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %q: %w", dir, err)
	}

	for {
		for _, name := range candidates {
			path := filepath.Join(current, name)
			if _, statErr := os.Stat(path); statErr != nil {
				continue
			}
			m, loadErr := Load(path)
			if loadErr != nil {
				return nil, "", loadErr
			}
			return m, current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached the filesystem root without finding a manifest.
			return Default(), dir, nil
		}
		current = parent
	}
}

// Load reads and parses a manifest file. The format is chosen by file
// extension: .json/.jsonc are parsed as JSONC (comments and trailing
// commas stripped first), .yaml/.yml as YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}

	m := &Manifest{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// jsonc.ToJSON rewrites comments and trailing commas in place,
		// producing strict JSON for the standard decoder.
		if err := json.Unmarshal(jsonc.ToJSON(data), m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest %q: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (expected .json, .jsonc, .yaml, or .yml)", path)
	}

	m.applyDefaults(path)
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return m, nil
}

// applyDefaults fills in the fields a sparse manifest may omit.
func (m *Manifest) applyDefaults(path string) {
	if m.Script == "" {
		m.Script = DefaultScript
	}
	if m.Name == "" {
		m.Name = filepath.Base(filepath.Dir(path))
	}
	if m.Sandbox != nil && m.Sandbox.Workdir == "" {
		m.Sandbox.Workdir = "/work"
	}
}

// validate rejects manifests that parse but cannot work.
func (m *Manifest) validate(path string) error {
	if m.Sandbox != nil && m.Sandbox.Image == "" {
		return fmt.Errorf("manifest %q: sandbox section requires an image", path)
	}
	if m.Default != "" && strings.TrimSpace(m.Default) == "" {
		return fmt.Errorf("manifest %q: default task must not be blank", path)
	}
	return nil
}

// ScriptPath resolves the manifest's script field against the project
// directory, leaving absolute script paths untouched.
func (m *Manifest) ScriptPath(projectDir string) string {
	if filepath.IsAbs(m.Script) {
		return m.Script
	}
	return filepath.Join(projectDir, m.Script)
}

// MergedEnv combines the top-level env map with the sandbox env map,
// sandbox entries winning on conflict. Returns a fresh map.
func (m *Manifest) MergedEnv() map[string]string {
	merged := make(map[string]string, len(m.Env))
	for k, v := range m.Env {
		merged[k] = v
	}
	if m.Sandbox != nil {
		for k, v := range m.Sandbox.Env {
			merged[k] = v
		}
	}
	return merged
}
