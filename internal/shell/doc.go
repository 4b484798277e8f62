// Package shell defines how kaji executes the commands that build
// scripts request through the sh() builtin.
//
// The Runner interface decouples the Lua engine from the execution
// backend: HostRunner (this package) spawns /bin/sh on the host, while
// internal/sandbox provides a Runner that executes the same commands in
// one-shot Docker containers.
package shell
