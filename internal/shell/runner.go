package shell

import (
	"context"
	"os"
	"os/exec"
)

// Runner executes a single shell command and reports its exit code.
//
// Run returns the command's exit code together with an error. A non-zero
// exit code is NOT an error — the command ran and reported a result, and
// deciding whether that is fatal belongs to the build script. The error
// return is reserved for failures to execute at all (missing shell,
// unreachable Docker daemon, cancelled context), in which case the exit
// code is -1.
type Runner interface {
	Run(ctx context.Context, command string) (int, error)
}

// HostRunner executes commands on the host via "/bin/sh -c".
// Standard output and standard error are inherited from the kaji
// process so task output streams directly to the user's terminal.
type HostRunner struct {
	// Dir is the working directory for spawned commands. When empty the
	// command inherits the kaji process's working directory, which means
	// os.chdir calls in the script affect subsequent sh() commands —
	// the behavior scripts expect from a chdir primitive.
	Dir string

	// Env holds extra environment variables as KEY=VALUE strings,
	// appended to the inherited process environment.
	Env []string
}

// NewHostRunner creates a HostRunner with extra environment variables
// taken from a map. Dir is left empty so commands follow the process
// working directory.
func NewHostRunner(env map[string]string) *HostRunner {
	r := &HostRunner{}
	for k, v := range env {
		r.Env = append(r.Env, k+"="+v)
	}
	return r
}

// Run executes command with "/bin/sh -c" and waits for completion.
// The context cancels the child process when it expires.
func (r *HostRunner) Run(ctx context.Context, command string) (int, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = r.Dir

	// Inherit the current process environment and add any extra variables.
	// os.Environ returns a copy, so appending does not affect this process.
	cmd.Env = append(os.Environ(), r.Env...)

	// Task output goes straight to the user, unbuffered. Capturing it
	// would delay feedback on long-running build commands.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	// A non-zero exit is a result, not an execution failure.
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}

	return -1, err
}
