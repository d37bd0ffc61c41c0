// Package cli provides the command-line interface for threadsplit.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/threadsplit/internal/cli/commands"
	"github.com/ccollicutt/threadsplit/internal/cli/plugins"
)

// Execute runs the root command against os.Args and returns the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// An unknown first word may be a plugin
	potential := pluginCandidate(rootCmd, args)
	if potential != "" {
		if pluginPath, err := plugins.FindPlugin(potential); err == nil {
			return plugins.Execute(pluginPath, args[1:])
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if potential != "" {
			_, _ = fmt.Fprintln(stderr, plugins.FormatNotFoundError(potential))
			return 2
		}
		// SilenceErrors keeps cobra from printing this itself
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return 0
}

// pluginCandidate returns the first argument when it is neither a flag nor a
// built-in command.
func pluginCandidate(rootCmd *cobra.Command, args []string) string {
	if len(args) == 0 {
		return ""
	}
	name := args[0]
	if name == "" || name[0] == '-' || isBuiltinCommand(rootCmd, name) {
		return ""
	}
	return name
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	// Also check for special commands like help and completion
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command. Run without a subcommand it
// performs a split.
func NewRootCommand() *cobra.Command {
	opts := &commands.SplitOptions{}

	rootCmd := &cobra.Command{
		Use:   "threadsplit",
		Short: "Split a thread log into per-thread and per-message-type files",
		Long: `threadsplit partitions a multi-threaded application log into one file per
thread, one file per thread and message type, and a last_<type> summary
holding the most recent line of each type from every live thread.

Lines look like

  ThreadId(<id>): [<message_type>] <text>

Threads whose final line contains "thread_terminated" are left out.

Running threadsplit with no arguments reads ./history and rewrites ./logs.

PLUGINS:
  threadsplit supports plugins for extended functionality. Plugins are
  standalone binaries named threadsplit-<command> that are automatically
  discovered and invoked.

  Plugin locations (searched in order):
    1. Same directory as the threadsplit binary
    2. ~/.threadsplit/plugins/
    3. Anywhere in PATH`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunSplit(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.AddSplitFlags(rootCmd, opts)

	rootCmd.AddCommand(commands.NewSplitCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
