package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mori-tools/kaji/internal/model"
)

// recordRunner is a shell.Runner test double that records every command
// and returns a scripted exit code or execution error.
type recordRunner struct {
	commands []string
	code     int
	err      error
}

func (r *recordRunner) Run(_ context.Context, command string) (int, error) {
	r.commands = append(r.commands, command)
	if r.err != nil {
		return -1, r.err
	}
	return r.code, nil
}

// writeScript writes a build script into a temp directory and returns its path.
func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kajifile.lua")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadFile_RegistersTasks verifies task() registrations are collected
// in registration order with their summaries.
func TestLoadFile_RegistersTasks(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	script := writeScript(t, `
task("build", "compile everything", function() end)
task("test", function() end)
task("docs:publish", "push docs", function() end)
`)
	require.NoError(t, e.LoadFile(script))

	tasks := e.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, model.TaskInfo{Name: "build", Summary: "compile everything"}, tasks[0])
	assert.Equal(t, model.TaskInfo{Name: "test"}, tasks[1])
	assert.Equal(t, model.TaskInfo{Name: "docs:publish", Summary: "push docs"}, tasks[2])

	assert.True(t, e.HasTask("build"))
	assert.False(t, e.HasTask("deploy"))
}

// TestLoadFile_Missing verifies a nonexistent script maps to the
// script-not-found exit code.
func TestLoadFile_Missing(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	err := e.LoadFile(filepath.Join(t.TempDir(), "nope.lua"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScriptNotFound, cliErr.Code)
}

// TestLoadFile_SyntaxError verifies a broken script maps to the
// script-error exit code.
func TestLoadFile_SyntaxError(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	script := writeScript(t, `task("build", function() end`)
	err := e.LoadFile(script)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScriptError, cliErr.Code)
}

// TestLoadFile_DuplicateTask verifies duplicate registrations fail at
// load time.
func TestLoadFile_DuplicateTask(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	script := writeScript(t, `
task("build", function() end)
task("build", function() end)
`)
	err := e.LoadFile(script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

// TestLoadFile_InvalidTaskName verifies name validation runs at
// registration time.
func TestLoadFile_InvalidTaskName(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	script := writeScript(t, `task("bad name", function() end)`)
	err := e.LoadFile(script)
	require.Error(t, err)
}

// TestRunTask_Success verifies a task runs and its sh() calls reach the
// configured runner in order.
func TestRunTask_Success(t *testing.T) {
	runner := &recordRunner{}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
task("build", function()
	sh("go vet ./...")
	sh("go build ./...")
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.RunTask(context.Background(), "build"))

	assert.Equal(t, []string{"go vet ./...", "go build ./..."}, runner.commands)
}

// TestRunTask_NotFound verifies the task-not-found exit code.
func TestRunTask_NotFound(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	err := e.RunTask(context.Background(), "ghost")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitTaskNotFound, cliErr.Code)
}

// TestRunTask_LuaError verifies a task raising error() maps to the
// script-error exit code and carries the script's message.
func TestRunTask_LuaError(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	script := writeScript(t, `
task("broken", function()
	error("deliberate failure")
end)
`)
	require.NoError(t, e.LoadFile(script))

	err := e.RunTask(context.Background(), "broken")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScriptError, cliErr.Code)
	assert.Contains(t, err.Error(), "deliberate failure")
}

// TestSh_ReturnValues verifies sh() hands ok and the exit code back to
// the script, for both success and a non-zero exit.
func TestSh_ReturnValues(t *testing.T) {
	runner := &recordRunner{code: 2}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
result_ok = nil
result_code = nil
task("check", function()
	result_ok, result_code = sh("false-ish")
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.RunTask(context.Background(), "check"))

	require.NoError(t, e.DoString(`assert(result_ok == false and result_code == 2)`))
}

// TestSh_ExecutionFailure verifies an execution failure (not a non-zero
// exit) collapses to false with code -1, mirroring the boolean-only
// contract of the os bindings.
func TestSh_ExecutionFailure(t *testing.T) {
	runner := &recordRunner{err: errors.New("daemon unreachable")}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
task("check", function()
	local ok, code = sh("anything")
	assert(ok == false and code == -1)
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.RunTask(context.Background(), "check"))
}

// TestSh_NoRunner verifies sh() raises when no runner is configured,
// surfacing as a task failure rather than a silent no-op.
func TestSh_NoRunner(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	script := writeScript(t, `
task("build", function()
	sh("true")
end)
`)
	require.NoError(t, e.LoadFile(script))

	err := e.RunTask(context.Background(), "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command runner configured")
}

// TestChdirFromScript verifies the os.chdir binding is wired into
// engine-hosted scripts and observes the boolean contract end to end.
func TestChdirFromScript(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, os.Chdir(orig)) })

	e := New(Options{})
	defer e.Close()

	dir := t.TempDir()
	script := writeScript(t, `
task("enter", function(target)
	assert(os.chdir(kaji_target) == true)
	assert(os.chdir("/this/path/does/not/exist") == false)
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.DoString(`kaji_target = [[`+dir+`]]`))
	require.NoError(t, e.RunTask(context.Background(), "enter"))
}

// TestDoString_Error verifies eval errors map to the script-error code.
func TestDoString_Error(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	err := e.DoString(`this is not lua`)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitScriptError, cliErr.Code)
}

// codedRunner is a shell.Runner test double with a per-command exit
// code, defaulting to 0 for commands it does not know.
type codedRunner struct {
	codes map[string]int
}

func (r *codedRunner) Run(_ context.Context, command string) (int, error) {
	return r.codes[command], nil
}

// TestLastCommandFailure_Recorded verifies a task that completes
// normally while its last sh() command exited non-zero leaves the
// failure observable on the engine.
func TestLastCommandFailure_Recorded(t *testing.T) {
	runner := &codedRunner{codes: map[string]int{"make broken": 2}}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
task("build", function()
	sh("make broken")
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.RunTask(context.Background(), "build"))

	command, code, failed := e.LastCommandFailure()
	assert.True(t, failed)
	assert.Equal(t, "make broken", command)
	assert.Equal(t, 2, code)
}

// TestLastCommandFailure_ClearedBySuccess verifies a later successful
// command wipes an earlier failure, so probe-and-recover scripts
// finish clean.
func TestLastCommandFailure_ClearedBySuccess(t *testing.T) {
	runner := &codedRunner{codes: map[string]int{"test -f out.bin": 1}}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
task("ensure", function()
	if not sh("test -f out.bin") then
		sh("make out.bin")
	end
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.RunTask(context.Background(), "ensure"))

	_, _, failed := e.LastCommandFailure()
	assert.False(t, failed)
}

// TestLastCommandFailure_ExecutionError verifies a command that could
// not be executed at all is recorded with the collapsed -1 code.
func TestLastCommandFailure_ExecutionError(t *testing.T) {
	runner := &recordRunner{err: errors.New("spawn failed")}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
task("build", function()
	sh("cc main.c")
end)
`)
	require.NoError(t, e.LoadFile(script))
	require.NoError(t, e.RunTask(context.Background(), "build"))

	command, code, failed := e.LastCommandFailure()
	assert.True(t, failed)
	assert.Equal(t, "cc main.c", command)
	assert.Equal(t, -1, code)
}

// TestLastCommandFailure_ScopedToTask verifies failures do not leak
// across RunTask calls: a failing command in one task does not taint
// the next, and script-load commands do not taint the first.
func TestLastCommandFailure_ScopedToTask(t *testing.T) {
	runner := &codedRunner{codes: map[string]int{"exit 7": 7}}
	e := New(Options{Runner: runner})
	defer e.Close()

	script := writeScript(t, `
sh("exit 7")
task("bad", function() sh("exit 7") end)
task("good", function() sh("true") end)
`)
	require.NoError(t, e.LoadFile(script))

	require.NoError(t, e.RunTask(context.Background(), "good"))
	_, _, failed := e.LastCommandFailure()
	assert.False(t, failed, "load-time command must not taint the task")

	require.NoError(t, e.RunTask(context.Background(), "bad"))
	_, code, failed := e.LastCommandFailure()
	require.True(t, failed)
	assert.Equal(t, 7, code)

	require.NoError(t, e.RunTask(context.Background(), "good"))
	_, _, failed = e.LastCommandFailure()
	assert.False(t, failed, "previous task's failure must not carry over")
}
