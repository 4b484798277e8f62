// Package cli — clean.go implements the "kaji clean" command.
//
// Sandbox containers are normally removed as soon as their command
// exits, but a crashed kaji process or a hard-killed run can leave
// them behind. clean discovers leftovers by their kaji.* labels and
// force-removes them.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mori-tools/kaji/internal/model"
	"github.com/mori-tools/kaji/internal/sandbox"
)

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover sandbox containers",
		Long: `Remove Docker containers left behind by interrupted sandbox runs.

Containers are discovered by the kaji.managed-by label, so only
containers created by kaji are touched.

Examples:
  kaji clean
  kaji clean --json`,

		Args: cobra.NoArgs,

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context())
		},
	}

	return cmd
}

// runClean connects to Docker, lists leftover sandbox containers, and
// removes them all.
func runClean(ctx context.Context) error {
	cli, err := sandbox.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	infos, err := sandbox.ListSandboxContainers(ctx, cli)
	if err != nil {
		return err
	}
	VerboseLog("Found %d leftover sandbox container(s)", len(infos))

	removed, err := sandbox.RemoveSandboxContainers(ctx, cli, infos)
	if err != nil {
		return err
	}

	printCleanResult(infos, removed)
	return nil
}

// printCleanResult outputs the clean command results in text or JSON
// format.
func printCleanResult(infos []model.SandboxInfo, removed int) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"removed":    removed,
			"containers": infos,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if removed == 0 {
		fmt.Println("No leftover sandbox containers")
		return
	}

	for _, info := range infos {
		fmt.Printf("Removed %s (project %q, task %q)\n",
			info.ContainerName, info.Project, info.Task)
	}
	fmt.Printf("%d container(s) removed\n", removed)
}
