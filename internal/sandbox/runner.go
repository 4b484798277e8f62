// runner.go implements containerized command execution. Each sh()
// command from a build script gets its own one-shot container: create,
// start, wait for exit, replay output, remove. Nothing is reused
// between commands, so a failed command can never leak state into the
// next one through the container filesystem.
package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/mori-tools/kaji/internal/model"
)

// RunnerOptions configures a sandbox Runner.
type RunnerOptions struct {
	// Image is the container image commands run in. Required.
	Image string

	// Workdir is the working directory inside the container.
	Workdir string

	// HostDir is the project directory on the host, bind-mounted onto
	// Workdir so build commands see the project source. Empty disables
	// the mount.
	HostDir string

	// Env holds extra environment variables as KEY=VALUE strings.
	Env []string

	// Project and Task are recorded in the container labels so
	// leftovers can be attributed and cleaned up.
	Project string
	Task    string

	// Log receives verbose progress messages (printf style). May be nil.
	Log func(format string, args ...interface{})
}

// Runner executes commands in one-shot Docker containers. It implements
// the shell.Runner interface, making it a drop-in replacement for host
// execution in the engine.
type Runner struct {
	cli  *Client
	opts RunnerOptions
}

// NewRunner creates a sandbox Runner over an established Docker client.
func NewRunner(cli *Client, opts RunnerOptions) *Runner {
	return &Runner{cli: cli, opts: opts}
}

// logf emits a verbose message when a log sink is configured.
func (r *Runner) logf(format string, args ...interface{}) {
	if r.opts.Log != nil {
		r.opts.Log(format, args...)
	}
}

// containerNameSanitizer strips characters Docker rejects in container
// names. Task names may contain colons ("docs:build") which are invalid.
var containerNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// containerName builds a unique container name for one command run.
// The nanosecond suffix keeps names unique across rapid consecutive
// sh() calls within the same task.
func containerName(taskName string) string {
	sanitized := containerNameSanitizer.ReplaceAllString(taskName, "-")
	return fmt.Sprintf("kaji-%s-%d", sanitized, time.Now().UnixNano())
}

// Run executes command inside a fresh container and returns its exit
// code. The container is force-removed afterwards, success or failure.
//
// As with the host runner, a non-zero exit code is a result, not an
// error; errors are reserved for Docker-level failures (daemon
// unreachable, image missing and unpullable, cancelled context).
func (r *Runner) Run(ctx context.Context, command string) (int, error) {
	config := &container.Config{
		Image:      r.opts.Image,
		Cmd:        []string{"/bin/sh", "-c", command},
		WorkingDir: r.opts.Workdir,
		Env:        r.opts.Env,
		Labels:     BuildLabels(r.opts.Project, r.opts.Task, time.Now()),
	}

	hostConfig := &container.HostConfig{}
	if r.opts.HostDir != "" {
		// Bind-mount the project directory so build commands operate on
		// the real source tree, not a copy.
		hostConfig.Binds = []string{r.opts.HostDir + ":" + r.opts.Workdir}
	}

	name := containerName(r.opts.Task)
	r.logf("sandbox: creating container %s (image %s)", name, r.opts.Image)

	created, err := r.cli.Inner().ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if client.IsErrNotFound(err) {
		// Image not present locally — pull it once and retry the create.
		if pullErr := r.pullImage(ctx); pullErr != nil {
			return -1, pullErr
		}
		created, err = r.cli.Inner().ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	}
	if err != nil {
		return -1, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create sandbox container for image %q", r.opts.Image),
			err,
		)
	}

	// From here on the container exists and must be removed no matter
	// how the run ends.
	defer r.remove(created.ID)

	if err := r.cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return -1, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start sandbox container %q", name),
			err,
		)
	}

	exitCode, err := r.wait(ctx, created.ID)
	if err != nil {
		return -1, err
	}

	// Replay the container's output after it exits. Output arrives when
	// the command completes rather than streaming live; sandbox commands
	// are expected to be batch build steps, not interactive sessions.
	r.copyLogs(ctx, created.ID)

	return exitCode, nil
}

// pullImage pulls the configured image, draining the progress stream.
func (r *Runner) pullImage(ctx context.Context) error {
	r.logf("sandbox: pulling image %s", r.opts.Image)

	rc, err := r.cli.Inner().ImagePull(ctx, r.opts.Image, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to pull image %q", r.opts.Image),
			err,
		)
	}
	defer rc.Close()

	// The pull stream must be fully consumed for the pull to complete.
	// The JSON progress messages are not useful here, so discard them.
	_, err = io.Copy(io.Discard, rc)
	return err
}

// wait blocks until the container exits and returns its exit code.
func (r *Runner) wait(ctx context.Context, containerID string) (int, error) {
	statusCh, errCh := r.cli.Inner().ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	select {
	case status := <-statusCh:
		if status.Error != nil {
			return -1, model.NewCLIError(
				model.ExitDockerNotRunning,
				fmt.Sprintf("sandbox container wait failed: %s", status.Error.Message),
			)
		}
		return int(status.StatusCode), nil

	case err := <-errCh:
		return -1, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed waiting for sandbox container",
			err,
		)
	}
}

// copyLogs copies the container's demultiplexed output to the process's
// stdout and stderr. Log retrieval failures are reported on stderr but
// do not fail the run — the exit code already captured the result.
func (r *Runner) copyLogs(ctx context.Context, containerID string) {
	rc, err := r.cli.Inner().ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "kaji: could not read sandbox output: %v\n", err)
		return
	}
	defer rc.Close()

	// Docker multiplexes stdout and stderr into one stream when the
	// container has no TTY; stdcopy demultiplexes it back onto the
	// right file descriptors.
	if _, err := stdcopy.StdCopy(os.Stdout, os.Stderr, rc); err != nil {
		fmt.Fprintf(os.Stderr, "kaji: could not copy sandbox output: %v\n", err)
	}
}

// remove force-removes the container, using a background context so
// cleanup still happens when the run context was cancelled.
func (r *Runner) remove(containerID string) {
	removeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := r.cli.Inner().ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true})
	if err != nil {
		// Leftovers are recoverable via "kaji clean"; don't fail the run.
		r.logf("sandbox: failed to remove container %s: %v", containerID, err)
	}
}
