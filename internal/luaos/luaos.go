package luaos

import (
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/mori-tools/kaji/internal/workdir"
)

// Load adds the kaji filesystem bindings to the Lua os table.
// RegisterModule with a nil function map returns the already-loaded
// standard os table, so the additions sit next to os.time, os.getenv
// and friends rather than in a separate namespace.
func Load(L *lua.LState) {
	modOs := L.RegisterModule(lua.OsLibName, nil).(*lua.LTable)
	L.SetFuncs(modOs, api)
}

// api maps Lua function names to their Go implementations.
// os.cd is an alias for os.chdir, matching shell muscle memory.
var api = map[string]lua.LGFunction{
	"chdir":    Chdir,
	"cd":       Chdir,
	"curdir":   Curdir,
	"mkdir":    Mkdir,
	"rmdir":    Rmdir,
	"exists":   Exists,
	"isdir":    Isdir,
	"tmpdir":   TmpDir,
	"hostname": Hostname,
}

// Chdir implements os.chdir(path) -> bool.
//
// The path is extracted with CheckString, which raises a Lua argument
// error for missing or non-string values before the operation is
// attempted. The working-directory change itself reports success as a
// bare boolean; the OS failure reason is not distinguished. The change
// affects the whole kaji process, including every later relative path
// the script or the runtime resolves.
func Chdir(L *lua.LState) int {
	path := L.CheckString(1)
	L.Push(lua.LBool(workdir.Set(path)))
	return 1
}

// Curdir implements os.curdir() -> string | nil.
// Returns the OS-reported current working directory, or nil if the
// query fails (e.g., the directory was removed underneath the process).
func Curdir(L *lua.LState) int {
	dir, err := workdir.Current()
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(dir))
	return 1
}

// Mkdir implements os.mkdir(path) -> bool.
// Creates the directory and any missing parents, like `mkdir -p`.
// Creating an already-existing directory counts as success.
func Mkdir(L *lua.LState) int {
	path := L.CheckString(1)
	if path == "" {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(os.MkdirAll(path, 0o755) == nil))
	return 1
}

// Rmdir implements os.rmdir(path) -> bool.
// Removes a single empty directory. Non-empty directories fail, which
// keeps scripts from deleting trees by accident; a script that wants
// recursive removal can shell out explicitly.
func Rmdir(L *lua.LState) int {
	path := L.CheckString(1)
	if path == "" {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(os.Remove(path) == nil))
	return 1
}

// Exists implements os.exists(path) -> bool.
// True for any filesystem entry (file, directory, symlink target).
func Exists(L *lua.LState) int {
	path := L.CheckString(1)
	_, err := os.Stat(path)
	L.Push(lua.LBool(err == nil))
	return 1
}

// Isdir implements os.isdir(path) -> bool.
func Isdir(L *lua.LState) int {
	path := L.CheckString(1)
	info, err := os.Stat(path)
	L.Push(lua.LBool(err == nil && info.IsDir()))
	return 1
}

// TmpDir implements os.tmpdir() -> string.
func TmpDir(L *lua.LState) int {
	L.Push(lua.LString(os.TempDir()))
	return 1
}

// Hostname implements os.hostname() -> string | nil.
func Hostname(L *lua.LState) int {
	name, err := os.Hostname()
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(name))
	return 1
}
