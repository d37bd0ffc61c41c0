package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/threadsplit/pkg/config"
	"github.com/ccollicutt/threadsplit/pkg/inspect"
	"github.com/ccollicutt/threadsplit/pkg/output"
	"github.com/ccollicutt/threadsplit/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common setup problems before a split",
		Long: `Diagnose common setup problems before a split.

Checks:
- Config file syntax and structure (defaults when no file is given)
- Input file existence and readability
- How many input lines match the thread line pattern
- Output directory safety (files that a split would delete)
- Webhook configuration, and connectivity with --verbose

Example:
  threadsplit diagnose
  threadsplit diagnose -v threadsplit.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := ""
			if len(args) == 1 {
				configPath = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, configPath, opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, configPath string, opts *DiagnoseOptions) []DiagnosticResult {
	var results []DiagnosticResult

	cfg, result := checkConfig(ctx, configPath)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	inputResult := checkInput(cfg)
	results = append(results, inputResult)
	if inputResult.Status != StatusError {
		results = append(results, checkLinePattern(ctx, cfg, opts))
	}

	results = append(results, checkOutputDir(cfg))
	results = append(results, checkWebhooks(cfg, opts)...)

	return results
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(ctx, path)
	}

	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if errors.Is(err, fs.ErrNotExist) {
			result.Suggests = []string{
				"Check the file path is correct",
				"Use 'threadsplit inspect <log-file> --write-config threadsplit.yaml' to generate a starter config",
			}
		} else if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	if path == "" {
		result.Message = "No config file, using defaults and environment"
	} else {
		result.Message = fmt.Sprintf("Parsed %s", path)
	}
	result.Details = []string{
		fmt.Sprintf("Input: %s", cfg.Input),
		fmt.Sprintf("Output dir: %s", cfg.OutputDir),
		fmt.Sprintf("Missing policy: %s", cfg.LastSeen.Missing),
	}
	return cfg, result
}

func checkInput(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Input File",
	}

	info, err := os.Stat(cfg.Input)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = fmt.Sprintf("Input not found: %s", cfg.Input)
		result.Suggests = []string{
			"Pass --input or set input in the config file",
			fmt.Sprintf("Set %s to override the input path", config.EnvInput),
		}
		return result
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access input: %v", err)
		return result
	case info.IsDir():
		result.Status = StatusError
		result.Message = fmt.Sprintf("Input is a directory: %s", cfg.Input)
		return result
	}

	f, err := os.Open(cfg.Input) // #nosec G304 -- user-provided path
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read input: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	_ = f.Close()

	if info.Size() == 0 {
		result.Status = StatusWarning
		result.Message = "Input is empty, a split will produce no files"
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%s)", cfg.Input, humanize.Bytes(uint64(info.Size())))
	return result
}

func checkLinePattern(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Line Pattern",
	}

	insp, err := inspect.New().InspectFile(ctx, cfg.Input)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot sample input: %v", err)
		return result
	}

	if !insp.HasMatch() {
		result.Status = StatusError
		result.Message = fmt.Sprintf("None of %d sampled lines match the thread line pattern", insp.SampledLines)
		result.Details = []string{fmt.Sprintf("Pattern: %s", parser.LinePattern)}
		for _, u := range insp.Unmatched {
			result.Details = append(result.Details, fmt.Sprintf("Line %d: %s", u.LineNum, truncate(u.Text, 80)))
		}
		result.Suggests = []string{"Run 'threadsplit inspect' on the file to see what it contains"}
		return result
	}

	result.Message = fmt.Sprintf("%d/%d sampled lines match (%.0f%%), %d thread(s), %d message type(s)",
		insp.MatchedLines, insp.SampledLines, insp.MatchRate*100, len(insp.Threads), len(insp.MessageTypes))

	if insp.MatchedLines < insp.SampledLines {
		result.Status = StatusWarning
		for _, u := range insp.Unmatched {
			result.Details = append(result.Details, fmt.Sprintf("Ignored line %d: %s", u.LineNum, truncate(u.Text, 80)))
		}
		result.Suggests = []string{"Lines that do not match are dropped silently during a split"}
		return result
	}

	result.Status = StatusOK
	if opts.Verbose {
		for _, mt := range insp.MessageTypes {
			result.Details = append(result.Details, fmt.Sprintf("%s: %d", mt.Name, mt.Count))
		}
	}
	return result
}

// isGeneratedName reports whether a file name looks like split output.
func isGeneratedName(name string) bool {
	return strings.HasPrefix(name, "thread_") || strings.HasPrefix(name, "last_")
}

func checkOutputDir(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Output Directory",
	}

	if err := output.CheckDir(cfg.OutputDir); err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		result.Suggests = []string{"Choose an output_dir that is a directory or does not exist yet"}
		return result
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if os.IsNotExist(err) {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%s does not exist yet and will be created", cfg.OutputDir)
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read output directory: %v", err)
		return result
	}

	var foreign []string
	for _, e := range entries {
		if e.IsDir() || !isGeneratedName(e.Name()) {
			foreign = append(foreign, e.Name())
		}
	}

	if len(foreign) > 0 {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d entr(ies) in %s do not look like split output and will be deleted", len(foreign), cfg.OutputDir)
		for _, name := range foreign {
			result.Details = append(result.Details, name)
		}
		result.Suggests = []string{"Point output_dir at a directory used only by threadsplit"}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("%s holds %d file(s) from a previous split, they will be replaced", cfg.OutputDir, len(entries))
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== threadsplit Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before running a split.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nA split will run but check the warnings.")
	default:
		fmt.Fprintln(w, "\nReady to split!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	var results []DiagnosticResult

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  StatusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		// Token env references are expanded during validation.
		if wh.Token == "" && opts.Verbose {
			result.Details = append(result.Details, "Token: none")
		}

		if opts.Verbose {
			result.Details = append(result.Details,
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout))
		}

		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (a real send may still work)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
