// Package engine hosts the Lua runtime that executes kaji build scripts.
//
// An Engine owns a single lua.LState with the kaji os bindings
// (internal/luaos) plus two globals for scripts:
//
//	task(name, [summary,] fn)  -- register a named task
//	sh(command) -> ok, code    -- run a shell command via the Runner
//
// The engine is strictly single-goroutine: a lua.LState is not safe for
// concurrent use, and the scripts themselves mutate process-wide state
// (the working directory) through os.chdir. Callers run one script at a
// time and cancel long task runs through the context passed to RunTask.
package engine
