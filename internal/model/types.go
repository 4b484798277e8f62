package model

import (
	"fmt"
	"regexp"
	"time"
)

// TaskInfo describes a task registered by a build script.
// Tasks exist only for the lifetime of a single engine run — the script
// is the sole source of truth, there is no persisted task registry.
type TaskInfo struct {
	// Name is the unique identifier for the task within a script.
	// Must contain only alphanumerics, hyphens, underscores, and colons
	// (colons allow namespacing like "docs:build").
	Name string `json:"name"`

	// Summary is an optional one-line description supplied by the script.
	Summary string `json:"summary,omitempty"`
}

// taskNameRegex validates task names: must start with an alphanumeric
// character, followed by alphanumerics, hyphens, underscores, or colons.
var taskNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_:-]*$`)

// ValidateTaskName checks if the given name is a valid task name.
// Valid names start with an alphanumeric character and contain only
// alphanumerics, hyphens, underscores, and colons.
func ValidateTaskName(name string) error {
	if name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if !taskNameRegex.MatchString(name) {
		return fmt.Errorf("invalid task name %q: must start with an alphanumeric character and contain only alphanumerics, hyphens, underscores, and colons", name)
	}
	return nil
}

// SandboxInfo holds runtime information about a sandbox container created
// by kaji. This data is fetched dynamically from the Docker API — the
// kaji.* container labels are the sole record of a sandbox run.
type SandboxInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Project is the project name the container was created for.
	Project string `json:"project"`

	// Task is the task name whose command ran in the container.
	Task string `json:"task"`

	// Status is the Docker container status (e.g., "running", "exited").
	Status string `json:"status"`

	// CreatedAt is the timestamp when kaji created the container.
	CreatedAt time.Time `json:"createdAt"`

	// Labels is the full set of Docker labels on the container.
	// Includes kaji management labels (kaji.* prefix).
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitScriptNotFound indicates the build script (kajifile.lua or the
	// path named by the manifest/--file flag) does not exist.
	ExitScriptNotFound ExitCode = 2

	// ExitScriptError indicates the build script failed to load, or a
	// task raised a Lua error while running.
	ExitScriptError ExitCode = 3

	// ExitTaskNotFound indicates the requested task is not registered
	// by the build script.
	ExitTaskNotFound ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	// Only relevant when running with --sandbox.
	ExitDockerNotRunning ExitCode = 5

	// ExitCommandFailed indicates a shell command run by a task exited
	// with a non-zero status.
	ExitCommandFailed ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
