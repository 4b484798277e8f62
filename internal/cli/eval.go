// Package cli — eval.go implements the "kaji eval" command.
//
// eval runs an inline Lua chunk in the same environment build scripts
// get: the kaji os bindings and the sh() builtin are available, so it
// doubles as a quick probe for the runtime ("kaji eval 'print(os.curdir())'").
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mori-tools/kaji/internal/engine"
	"github.com/mori-tools/kaji/internal/shell"
)

// NewEvalCommand creates the "eval" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <chunk>",
		Short: "Run an inline Lua chunk",
		Long: `Run an inline Lua chunk with the kaji runtime loaded.

The chunk sees the same environment as a build script: the extended
os table (os.chdir, os.curdir, os.mkdir, ...) and the sh() builtin,
which executes on the host.

Examples:
  kaji eval 'print(os.curdir())'
  kaji eval 'if not os.chdir("/tmp") then error("no /tmp") end'
  kaji eval 'sh("go version")'`,

		// Exactly one positional argument: the Lua chunk.
		Args: cobra.ExactArgs(1),

		// RunE returns an error to the root command's error handler.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(args[0])
		},
	}

	return cmd
}

// runEval executes the chunk in a throwaway engine with host execution.
func runEval(chunk string) error {
	eng := engine.New(engine.Options{
		Runner: shell.NewHostRunner(nil),
		Log:    VerboseLog,
	})
	defer eng.Close()

	return eng.DoString(chunk)
}
