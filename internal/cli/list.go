// Package cli — list.go implements the "kaji list" command.
//
// The list command loads the project's build script and displays the
// tasks it registers, in registration order, as a text table or a JSON
// array depending on the --json flag. Nothing is executed beyond the
// script's top level — tasks are registered, not run.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mori-tools/kaji/internal/engine"
	"github.com/mori-tools/kaji/internal/manifest"
	"github.com/mori-tools/kaji/internal/model"
	"github.com/mori-tools/kaji/internal/workdir"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	file string // --file: explicit build script path
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks defined by the build script",
		Long: `List all tasks registered by the project's Lua build script.

Each task is shown with its name and summary. The manifest's default
task, if any, is marked.

Examples:
  kaji list
  kaji list --json
  kaji list --file build/tasks.lua`,

		// No positional arguments are required for the list command.
		Args: cobra.NoArgs,

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Build script path (default: manifest script or kajifile.lua)")

	return cmd
}

// runList is the main logic function for the list command.
func runList(flags *listFlags) error {
	cwd, err := workdir.Current()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	m, projectDir, err := manifest.Find(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load manifest", err)
	}

	scriptPath := flags.file
	if scriptPath == "" {
		scriptPath = m.ScriptPath(projectDir)
	}
	VerboseLog("Build script: %s", scriptPath)

	// Listing must not run commands: tasks that call sh() at the top
	// level (outside task bodies) would execute during load, so no
	// runner is configured and such scripts fail loudly instead.
	eng := engine.New(engine.Options{Log: VerboseLog})
	defer eng.Close()

	if err := eng.LoadFile(scriptPath); err != nil {
		return err
	}

	tasks := eng.Tasks()
	if IsJSONOutput() {
		return printTasksJSON(tasks, m.Default)
	}
	printTasksText(tasks, m.Default)
	return nil
}

// printTasksJSON outputs the task list as a structured JSON array.
func printTasksJSON(tasks []model.TaskInfo, defaultTask string) error {
	type taskJSON struct {
		Name    string `json:"name"`
		Summary string `json:"summary,omitempty"`
		Default bool   `json:"default,omitempty"`
	}

	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskJSON{
			Name:    t.Name,
			Summary: t.Summary,
			Default: t.Name == defaultTask && defaultTask != "",
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to encode task list", err)
	}
	fmt.Println(string(data))
	return nil
}

// printTasksText outputs the task list as a human-readable table.
func printTasksText(tasks []model.TaskInfo, defaultTask string) {
	if len(tasks) == 0 {
		fmt.Println("No tasks defined")
		return
	}

	width := taskNameWidth(tasks)
	for _, t := range tasks {
		fmt.Println(formatTaskRow(t, defaultTask, width))
	}
}

// taskNameWidth returns the column width for the name column:
// the longest task name, so summaries align.
func taskNameWidth(tasks []model.TaskInfo) int {
	width := 0
	for _, t := range tasks {
		if len(t.Name) > width {
			width = len(t.Name)
		}
	}
	return width
}

// formatTaskRow renders one task line: padded name, default marker,
// and summary. Example:
//
//	build *  compile everything
//	test     run the test suite
func formatTaskRow(t model.TaskInfo, defaultTask string, width int) string {
	marker := " "
	if defaultTask != "" && t.Name == defaultTask {
		marker = "*"
	}

	row := fmt.Sprintf("%-*s %s", width, t.Name, marker)
	if t.Summary != "" {
		row += "  " + t.Summary
	}
	return row
}
