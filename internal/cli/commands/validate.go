package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/threadsplit/pkg/config"
	"github.com/ccollicutt/threadsplit/pkg/output"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a threadsplit configuration file without splitting anything.

Checks:
  - YAML syntax
  - Required fields and last_seen policy
  - Output directory safety
  - Webhook URLs and triggers
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Input:          %s\n", cfg.Input)
	fmt.Fprintf(out, "  Output dir:     %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Missing policy: %s\n", cfg.LastSeen.Missing)
	fmt.Fprintf(out, "  Webhooks:       %d\n", len(cfg.Webhooks))

	for i, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}
		fmt.Fprintf(out, "    %d. %s [%s]\n", i+1, name, wh.Trigger)
	}

	// Warnings only
	if info, err := os.Stat(cfg.Input); err != nil {
		fmt.Fprintf(out, "\nWarning: input %s is not readable: %v\n", cfg.Input, err)
	} else if info.IsDir() {
		fmt.Fprintf(out, "\nWarning: input %s is a directory\n", cfg.Input)
	}

	if err := output.CheckDir(cfg.OutputDir); err != nil {
		fmt.Fprintf(out, "\nWarning: %v\n", err)
	}

	return nil
}
