// Package model defines the domain types and value objects for the
// kaji CLI.
//
// This package contains pure data structures with no external dependencies.
// Task metadata (TaskInfo) is transient — the build script is the sole
// source of truth and nothing is persisted. Sandbox container metadata
// (SandboxInfo) is reconstructed from Docker container labels at runtime.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
