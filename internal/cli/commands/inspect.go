package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/threadsplit/pkg/config"
	"github.com/ccollicutt/threadsplit/pkg/inspect"
	"github.com/ccollicutt/threadsplit/pkg/parser"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	Output      string
	SampleSize  int
	WriteConfig string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [log-file]",
		Short: "Check how well a log file fits the thread line pattern",
		Long: `Sample the head of a log file and report how many lines match

  ThreadId(<id>): [<message_type>] <text>

along with the threads and message types seen and examples of lines that a
split would ignore. Nothing is written unless --write-config is given.

The log file defaults to ./history.

Example:
  threadsplit inspect
  threadsplit inspect --sample 500 /var/log/app/history
  threadsplit inspect -w threadsplit.yaml /var/log/app/history`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", inspect.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string, opts *InspectOptions) error {
	logFile := config.DefaultInput
	if len(args) == 1 {
		logFile = args[0]
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	result, err := inspect.New(inspect.WithSampleSize(opts.SampleSize)).InspectFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputInspectJSON(out, result, logFile)
	case "text":
		return outputInspectText(out, result, logFile)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputInspectText(w io.Writer, result *inspect.Result, logFile string) error {
	fmt.Fprintln(w, "=== Thread Log Inspection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines matched: %d (%.1f%%)\n", result.MatchedLines, result.MatchRate*100)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No thread lines found.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Expected lines matching: %s\n", parser.LinePattern)
		return nil
	}

	fmt.Fprintf(w, "Threads: %d (%d active, %d terminated in sample)\n",
		len(result.Threads), result.ActiveThreads(), len(result.Threads)-result.ActiveThreads())
	for _, t := range result.Threads {
		state := "active"
		if t.Terminated {
			state = "terminated"
		}
		fmt.Fprintf(w, "  %-20s %5d line(s)  %s\n", t.ID, t.Lines, state)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Message types: %d\n", len(result.MessageTypes))
	for _, mt := range result.MessageTypes {
		fmt.Fprintf(w, "  %-20s %5d\n", mt.Name, mt.Count)
	}

	if len(result.Unmatched) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "--- Lines a split would ignore ---")
		for _, u := range result.Unmatched {
			fmt.Fprintf(w, "  %d: %s\n", u.LineNum, u.Text)
		}
	}

	return nil
}

// JSONInspection represents the JSON output of inspect.
type JSONInspection struct {
	File          string                  `json:"file"`
	SampledLines  int                     `json:"sampled_lines"`
	MatchedLines  int                     `json:"matched_lines"`
	MatchRate     float64                 `json:"match_rate"`
	Threads       []inspect.ThreadSummary `json:"threads"`
	MessageTypes  []inspect.TypeCount     `json:"message_types"`
	Unmatched     []inspect.UnmatchedLine `json:"unmatched,omitempty"`
	ActiveThreads int                     `json:"active_threads"`
}

func outputInspectJSON(w io.Writer, result *inspect.Result, logFile string) error {
	doc := JSONInspection{
		File:          logFile,
		SampledLines:  result.SampledLines,
		MatchedLines:  result.MatchedLines,
		MatchRate:     result.MatchRate,
		Threads:       result.Threads,
		MessageTypes:  result.MessageTypes,
		Unmatched:     result.Unmatched,
		ActiveThreads: result.ActiveThreads(),
	}
	if doc.Threads == nil {
		doc.Threads = []inspect.ThreadSummary{}
	}
	if doc.MessageTypes == nil {
		doc.MessageTypes = []inspect.TypeCount{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// writeStarterConfig writes a config file pointing at logFile.
func writeStarterConfig(w io.Writer, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(generateStarterConfig(logFile)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	return fmt.Sprintf(`# threadsplit configuration
# Generated by: threadsplit inspect

input: %s

# Recreated on every run. Everything inside is deleted.
output_dir: %s

last_seen:
  # What last_<type> holds for an active thread that never logged <type>:
  #   skip  - nothing
  #   blank - an empty line
  missing: %s

# webhooks:
#   - name: ops
#     url: https://example.com/hooks/threadsplit
#     token: ${THREADSPLIT_WEBHOOK_TOKEN}
#     trigger: on_issues
`, absLogFile, config.DefaultOutputDir, config.DefaultMissing)
}
