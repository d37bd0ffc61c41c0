package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/threadsplit/pkg/config"
	"github.com/ccollicutt/threadsplit/pkg/logging"
	"github.com/ccollicutt/threadsplit/pkg/output"
	"github.com/ccollicutt/threadsplit/pkg/parser"
	"github.com/ccollicutt/threadsplit/pkg/partition"
	"github.com/ccollicutt/threadsplit/pkg/webhook"
)

// SplitOptions holds command-line options for the split command.
type SplitOptions struct {
	ConfigFile string
	Input      string
	OutputDir  string
	Missing    string
	Output     string
	Verbose    bool
	Quiet      bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

const splitLong = `Split a thread log into per-thread and per-message-type files.

Every line of the form

  ThreadId(<id>): [<message_type>] <text>

is grouped by thread and message type. Other lines are ignored. Threads
whose last line contains "thread_terminated" are left out. The output
directory is wiped and recreated, then receives:

  thread_<id>_all       every line of an active thread
  thread_<id>_<type>    that thread's lines of one message type
  last_<type>           the latest line of that type per active thread

With no flags the input is ./history and the output directory is ./logs.

Exit codes:
  0 - Split completed
  2 - Configuration or runtime error`

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	opts := &SplitOptions{}

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a thread log into per-thread files",
		Long:  splitLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSplit(cmd, opts)
		},
	}

	AddSplitFlags(cmd, opts)
	return cmd
}

// AddSplitFlags registers the split flags on cmd. The root command shares
// them so that running the binary bare performs a split.
func AddSplitFlags(cmd *cobra.Command, opts *SplitOptions) {
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Log file to split (default ./history)")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "d", "", "Output directory, recreated on every run (default ./logs)")
	cmd.Flags().StringVar(&opts.Missing, "missing", "", "last_<type> entry for threads without that type (skip|blank)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Report format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List written files and enable debug logging")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, warnings only")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_issues", "When to fire webhook (on_issues|always|never)")
}

// RunSplit runs the whole pipeline: read and group the input, recreate the
// output directory, write the files and print the report.
func RunSplit(cmd *cobra.Command, opts *SplitOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.New(opts.Verbose, opts.Quiet)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadSplitConfig(ctx, opts)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	if err := output.CheckDir(cfg.OutputDir); err != nil {
		return err
	}

	start := time.Now()

	// The input is read in full before the output directory is touched, so
	// a missing input leaves previous output in place.
	source := parser.NewFileSource(cfg.Input, nil)
	defer source.Close()

	if err := source.Open(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	p := partition.New(partition.WithLogger(logger))
	if err := p.Ingest(ctx, source); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	writer := output.NewWriter(cfg.OutputDir,
		output.WithMissingPolicy(cfg.LastSeen.Missing),
		output.WithLogger(logger))

	if err := writer.ResetDir(); err != nil {
		return err
	}

	files, err := writer.WriteAll(p)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	report := output.NewReport(source.Stats(), p, files, output.Metadata{
		RunID:         uuid.NewString(),
		Input:         cfg.Input,
		OutputDir:     cfg.OutputDir,
		MissingPolicy: string(cfg.LastSeen.Missing),
		StartedAt:     start,
		Duration:      time.Since(start),
	})

	logger.Info("split complete",
		zap.String("input", cfg.Input),
		zap.String("output_dir", cfg.OutputDir),
		zap.Int("active_threads", report.Summary.ActiveThreads),
		zap.Int("terminated_threads", report.Summary.TerminatedThreads),
		zap.Int("files", report.Summary.FilesWritten))

	if report.Summary.LinesSkipped > 0 {
		logger.Debug("lines ignored", zap.Int("count", report.Summary.LinesSkipped))
	}

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook errors are logged but don't fail the split
	if webhooks := collectWebhooks(cfg, opts); len(webhooks) > 0 {
		webhook.NewClient(logger).Notify(ctx, webhooks, report)
	}

	return nil
}

// loadSplitConfig builds the effective configuration: file or defaults,
// then environment, then flags.
func loadSplitConfig(ctx context.Context, opts *SplitOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(ctx, opts.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.Input != "" {
		cfg.Input = opts.Input
	}
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.Missing != "" {
		cfg.LastSeen.Missing = config.MissingPolicy(opts.Missing)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return cfg, nil
}

func createFormatter(opts *SplitOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *SplitOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnIssues
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
