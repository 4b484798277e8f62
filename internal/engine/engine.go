package engine

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/mori-tools/kaji/internal/luaos"
	"github.com/mori-tools/kaji/internal/model"
	"github.com/mori-tools/kaji/internal/shell"
)

// Options configures a new Engine.
type Options struct {
	// Runner executes sh() commands. When nil, sh() raises a Lua error
	// so scripts fail loudly instead of silently skipping commands.
	Runner shell.Runner

	// Log receives verbose progress messages (printf style). May be nil.
	Log func(format string, args ...interface{})
}

// task pairs a registered task's metadata with its Lua function.
type task struct {
	info model.TaskInfo
	fn   *lua.LFunction
}

// Engine wraps a Lua state prepared for running kaji build scripts.
// Create with New, release with Close.
type Engine struct {
	state  *lua.LState
	runner shell.Runner
	log    func(format string, args ...interface{})

	// tasks indexes registered tasks by name; order preserves the
	// registration sequence for stable list output.
	tasks map[string]*task
	order []string

	// lastFailedCommand and lastFailedCode record the most recent sh()
	// command that exited non-zero (or failed to execute). A later
	// successful sh() clears them, so after a task completes they
	// describe the task's final command outcome, the same "status of
	// the last command" convention shells use for a script's own exit.
	lastFailedCommand string
	lastFailedCode    int
	lastFailed        bool
}

// New creates an Engine with a fresh Lua state, the kaji os bindings
// loaded, and the task/sh globals registered.
func New(opts Options) *Engine {
	e := &Engine{
		state:  lua.NewState(),
		runner: opts.Runner,
		log:    opts.Log,
		tasks:  make(map[string]*task),
	}

	luaos.Load(e.state)
	e.state.SetGlobal("task", e.state.NewFunction(e.luaTask))
	e.state.SetGlobal("sh", e.state.NewFunction(e.luaSh))

	return e
}

// Close releases the underlying Lua state. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	e.state.Close()
}

// logf emits a verbose message when a log sink is configured.
func (e *Engine) logf(format string, args ...interface{}) {
	if e.log != nil {
		e.log(format, args...)
	}
}

// luaTask implements the task(name, [summary,] fn) builtin.
//
// The summary argument is optional: when the second argument is a
// string it is taken as the summary and the function shifts to the
// third position. Invalid names and duplicate registrations raise Lua
// errors so the script fails at load time, not when the task runs.
func (e *Engine) luaTask(L *lua.LState) int {
	name := L.CheckString(1)
	if err := model.ValidateTaskName(name); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	summary := ""
	fnIndex := 2
	if L.Get(2).Type() == lua.LTString {
		summary = L.CheckString(2)
		fnIndex = 3
	}
	fn := L.CheckFunction(fnIndex)

	if _, exists := e.tasks[name]; exists {
		L.RaiseError("task %q is already defined", name)
		return 0
	}

	e.tasks[name] = &task{
		info: model.TaskInfo{Name: name, Summary: summary},
		fn:   fn,
	}
	e.order = append(e.order, name)
	return 0
}

// luaSh implements the sh(command) builtin.
//
// It runs the command through the configured Runner and returns two
// values to the script: ok (true only for exit code 0) and the exit
// code itself. Failures to execute at all (as opposed to a non-zero
// exit) also yield false, with code -1 — the same collapsed-failure
// contract the os bindings use.
func (e *Engine) luaSh(L *lua.LState) int {
	command := L.CheckString(1)

	if e.runner == nil {
		L.RaiseError("sh: no command runner configured")
		return 0
	}

	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	e.logf("sh: %s", command)
	code, err := e.runner.Run(ctx, command)
	if err != nil {
		e.logf("sh: execution failed: %v", err)
		e.recordCommandResult(command, -1)
		L.Push(lua.LFalse)
		L.Push(lua.LNumber(-1))
		return 2
	}

	e.recordCommandResult(command, code)
	L.Push(lua.LBool(code == 0))
	L.Push(lua.LNumber(code))
	return 2
}

// recordCommandResult updates the last-command failure tracker. A
// successful command wipes any earlier failure, so scripts that probe
// with sh() and recover (mkdir-if-missing patterns) finish clean.
func (e *Engine) recordCommandResult(command string, code int) {
	if code == 0 {
		e.lastFailed = false
		e.lastFailedCommand = ""
		e.lastFailedCode = 0
		return
	}
	e.lastFailed = true
	e.lastFailedCommand = command
	e.lastFailedCode = code
}

// LastCommandFailure reports whether the most recent sh() command ended
// in failure, along with the command text and its exit code (-1 when
// the command could not be executed at all). Callers use it to turn a
// task that ran to completion but left a failing command behind into a
// non-zero process exit.
func (e *Engine) LastCommandFailure() (command string, code int, failed bool) {
	return e.lastFailedCommand, e.lastFailedCode, e.lastFailed
}

// LoadFile reads and executes the build script at path. Task functions
// are registered during execution; top-level statements run immediately.
func (e *Engine) LoadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return model.WrapCLIError(model.ExitScriptNotFound,
			fmt.Sprintf("build script %q not found", path), err)
	}

	e.logf("loading script: %s", path)
	if err := e.state.DoFile(path); err != nil {
		return model.WrapCLIError(model.ExitScriptError,
			fmt.Sprintf("failed to load %q", path), err)
	}
	return nil
}

// DoString executes an inline Lua chunk in the engine's environment.
// Used by "kaji eval" for one-off script snippets.
func (e *Engine) DoString(chunk string) error {
	if err := e.state.DoString(chunk); err != nil {
		return model.WrapCLIError(model.ExitScriptError, "eval failed", err)
	}
	return nil
}

// RunTask executes the named task's Lua function. The context is
// attached to the Lua state for the duration of the call so sh()
// commands and long-running chunks can be cancelled.
func (e *Engine) RunTask(ctx context.Context, name string) error {
	t, ok := e.tasks[name]
	if !ok {
		return model.NewCLIError(model.ExitTaskNotFound,
			fmt.Sprintf("task %q is not defined by the build script", name))
	}

	e.state.SetContext(ctx)
	defer e.state.RemoveContext()

	// Failure tracking is scoped to this task: commands run at script
	// load time or by a previous task do not carry over.
	e.recordCommandResult("", 0)

	e.logf("running task: %s", name)
	err := e.state.CallByParam(lua.P{
		Fn:      t.fn,
		NRet:    0,
		Protect: true,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitScriptError,
			fmt.Sprintf("task %q failed", name), err)
	}
	return nil
}

// HasTask reports whether the script registered a task with this name.
func (e *Engine) HasTask(name string) bool {
	_, ok := e.tasks[name]
	return ok
}

// Tasks returns the registered tasks in registration order.
func (e *Engine) Tasks() []model.TaskInfo {
	infos := make([]model.TaskInfo, 0, len(e.order))
	for _, name := range e.order {
		infos = append(infos, e.tasks[name].info)
	}
	return infos
}
