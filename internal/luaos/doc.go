// Package luaos extends the Lua standard os table with filesystem
// operations for kaji build scripts.
//
// The bindings are deliberately thin: each one extracts its arguments
// from the Lua stack, delegates to a native operation, and pushes the
// result back. Operations that can fail at the OS level (chdir, mkdir,
// rmdir) follow a boolean-only contract — the failure reason is never
// surfaced to the script, which decides its own error policy.
//
// Scripts see the additions on the familiar os table:
//
//	if not os.chdir(dir) then
//	    error("cannot enter " .. dir)
//	end
package luaos
