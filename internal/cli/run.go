// Package cli — run.go implements the "kaji run" command.
//
// The run command is the primary user-facing operation. It locates the
// project (manifest discovery walking up from the current directory),
// loads the build script into a Lua engine, and executes the requested
// task — or the manifest's default task when none is named.
//
// Orchestration steps:
//  1. Locate the project manifest and resolve the build script path
//  2. Change into the project directory so relative paths behave
//  3. Build the command runner (host shell, or Docker sandbox)
//  4. Load the script and resolve the task to run
//  5. Run the task and report the result (text or JSON)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mori-tools/kaji/internal/engine"
	"github.com/mori-tools/kaji/internal/manifest"
	"github.com/mori-tools/kaji/internal/model"
	"github.com/mori-tools/kaji/internal/sandbox"
	"github.com/mori-tools/kaji/internal/shell"
	"github.com/mori-tools/kaji/internal/workdir"
)

// runFlags holds the flag values for the run command.
// These are bound to cobra flags in NewRunCommand.
type runFlags struct {
	file    string // --file: explicit build script path
	sandbox bool   // --sandbox: run sh() commands in Docker containers
	image   string // --image: sandbox image override
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run a task from the build script",
		Long: `Run a task defined by the project's Lua build script.

Without a task argument, the manifest's default task is run. The build
script is kajifile.lua in the project root unless the manifest or the
--file flag names another path.

With --sandbox, every sh() command the task executes runs inside a
one-shot Docker container instead of the host shell. The image comes
from the manifest's sandbox section or the --image flag.

Examples:
  kaji run build
  kaji run                       # manifest default task
  kaji run test --sandbox
  kaji run build --sandbox --image golang:1.25
  kaji -C ../other-project run build`,

		// At most one positional argument: the task name.
		Args: cobra.MaximumNArgs(1),

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			taskName := ""
			if len(args) == 1 {
				taskName = args[0]
			}
			return runRun(cmd.Context(), taskName, flags)
		},
	}

	// Register command-specific flags.
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Build script path (default: manifest script or kajifile.lua)")
	cmd.Flags().BoolVar(&flags.sandbox, "sandbox", false, "Run sh() commands in one-shot Docker containers")
	cmd.Flags().StringVar(&flags.image, "image", "", "Sandbox image (overrides the manifest)")

	return cmd
}

// runRun is the main orchestration function for the run command.
func runRun(ctx context.Context, taskName string, flags *runFlags) error {
	// Step 1: Locate the project. Manifest discovery starts from the
	// current directory (already adjusted by -C in the root command).
	cwd, err := workdir.Current()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	m, projectDir, err := manifest.Find(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load manifest", err)
	}
	VerboseLog("Project: %s (%s)", m.Name, projectDir)

	scriptPath, err := resolveScriptPath(flags.file, m, projectDir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve build script path", err)
	}
	VerboseLog("Build script: %s", scriptPath)

	// Step 2: Enter the project directory. The script's own os.chdir
	// calls take it from there; kaji only establishes the starting point.
	if projectDir != cwd && !workdir.Set(projectDir) {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot change directory to project root %q", projectDir))
	}

	// Step 3: Build the command runner.
	runner, cleanup, err := buildRunner(ctx, m, projectDir, taskName, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	// Step 4: Load the script and resolve the task.
	eng := engine.New(engine.Options{Runner: runner, Log: VerboseLog})
	defer eng.Close()

	if err := eng.LoadFile(scriptPath); err != nil {
		return err
	}

	resolved, err := resolveTask(eng, taskName, m)
	if err != nil {
		return err
	}

	// Step 5: Run it and report. A task that returns normally but whose
	// last sh() command failed still counts as a failed run: the script
	// got the ok/code pair and chose not to recover.
	start := time.Now()
	if err := eng.RunTask(ctx, resolved); err != nil {
		return err
	}
	if command, code, failed := eng.LastCommandFailure(); failed {
		return model.NewCLIError(model.ExitCommandFailed,
			fmt.Sprintf("task %q: command %q exited with status %d", resolved, command, code))
	}

	printRunResult(m.Name, resolved, time.Since(start))
	return nil
}

// resolveScriptPath decides which build script to load. An explicit
// --file value wins and is made absolute against the invocation
// directory, so a relative path means "relative to where kaji was run"
// even though the run command changes into the project root afterwards.
func resolveScriptPath(file string, m *manifest.Manifest, projectDir string) (string, error) {
	if file == "" {
		return m.ScriptPath(projectDir), nil
	}
	return filepath.Abs(file)
}

// buildRunner constructs the shell.Runner tasks will use, plus a cleanup
// function releasing any resources it holds.
//
// Host execution is the default. The sandbox runner is selected by the
// --sandbox flag and requires an image from --image or the manifest.
func buildRunner(ctx context.Context, m *manifest.Manifest, projectDir, taskName string, flags *runFlags) (shell.Runner, func(), error) {
	if !flags.sandbox {
		return shell.NewHostRunner(m.Env), func() {}, nil
	}

	image := flags.image
	workDir := "/work"
	if m.Sandbox != nil {
		if image == "" {
			image = m.Sandbox.Image
		}
		workDir = m.Sandbox.Workdir
	}
	if image == "" {
		return nil, nil, model.NewCLIError(model.ExitGeneralError,
			"sandbox requires an image: set one with --image or a sandbox section in the manifest")
	}

	cli, err := sandbox.NewClient()
	if err != nil {
		return nil, nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, nil, err
	}

	env := make([]string, 0, len(m.Env))
	for k, v := range m.MergedEnv() {
		env = append(env, k+"="+v)
	}

	label := taskName
	if label == "" {
		label = m.Default
	}

	runner := sandbox.NewRunner(cli, sandbox.RunnerOptions{
		Image:   image,
		Workdir: workDir,
		HostDir: projectDir,
		Env:     env,
		Project: m.Name,
		Task:    label,
		Log:     VerboseLog,
	})
	return runner, func() { _ = cli.Close() }, nil
}

// resolveTask picks the task to run: the explicit argument wins, then
// the manifest default. No argument and no default is an error that
// lists what the script does define.
func resolveTask(eng *engine.Engine, taskName string, m *manifest.Manifest) (string, error) {
	if taskName != "" {
		return taskName, nil
	}
	if m.Default != "" {
		VerboseLog("Using default task: %s", m.Default)
		return m.Default, nil
	}

	tasks := eng.Tasks()
	if len(tasks) == 0 {
		return "", model.NewCLIError(model.ExitTaskNotFound,
			"the build script defines no tasks")
	}
	return "", model.NewCLIError(model.ExitTaskNotFound,
		fmt.Sprintf("no task named and the manifest sets no default (run \"kaji list\" to see the %d available tasks)", len(tasks)))
}

// printRunResult outputs the run command results in text or JSON format.
func printRunResult(project, taskName string, elapsed time.Duration) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"project":  project,
			"task":     taskName,
			"status":   "ok",
			"duration": elapsed.Round(time.Millisecond).String(),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Task %q completed in %s\n", taskName, elapsed.Round(time.Millisecond))
}
