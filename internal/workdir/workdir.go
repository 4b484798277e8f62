package workdir

import (
	"os"
	"sync"
)

// mu serializes working-directory operations within this process.
// The OS provides no per-goroutine isolation of the working directory,
// so without this lock concurrent Set calls would race with last-writer-
// wins semantics. The lock only covers callers of this package; the
// process-wide effect of a successful Set is still visible everywhere.
var mu sync.Mutex

// Set requests that the operating system change the process's current
// working directory to path. It returns true if the OS primitive reports
// success, false otherwise. No error detail is surfaced, and nothing is
// logged — failure policy belongs to the caller.
//
// An empty path is rejected without attempting the OS call. On failure
// the working directory is left unchanged.
func Set(path string) bool {
	if path == "" {
		return false
	}

	mu.Lock()
	defer mu.Unlock()
	return os.Chdir(path) == nil
}

// Current returns the process's current working directory as reported
// by the operating system. The value is queried fresh on every call
// rather than cached, since any Set (or chdir by linked code) changes it.
func Current() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	return os.Getwd()
}
