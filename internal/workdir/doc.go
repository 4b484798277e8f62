// Package workdir wraps the operating system's current-working-directory
// primitives for the kaji runtime.
//
// The working directory is process-wide mutable state: a successful Set is
// observable by every subsequent relative-path resolution in the process,
// not just by the caller. The package never caches the directory in
// application memory — Current always asks the OS — so the application's
// view cannot drift from the OS's actual state.
//
// Set has a boolean-only contract: any OS-level failure (path not found,
// not a directory, permission denied) is collapsed into false. Callers
// that need richer error policy must layer it on top.
package workdir
