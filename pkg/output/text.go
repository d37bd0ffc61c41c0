package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	s := report.Summary
	_, err := fmt.Fprintf(w, "threadsplit: %d threads (%d active, %d terminated), %d message types, %d files written\n",
		s.Threads, s.ActiveThreads, s.TerminatedThreads, s.MessageTypes, s.FilesWritten)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	s := report.Summary
	m := report.Metadata

	var b strings.Builder

	b.WriteString("=== threadsplit Report ===\n\n")
	fmt.Fprintf(&b, "Input:      %s\n", m.Input)
	fmt.Fprintf(&b, "Output dir: %s\n", m.OutputDir)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Lines: %s read, %s matched, %s skipped\n",
		humanize.Comma(int64(s.LinesRead)),
		humanize.Comma(int64(s.LinesMatched)),
		humanize.Comma(int64(s.LinesSkipped)))
	fmt.Fprintf(&b, "Threads: %d active, %d terminated\n", s.ActiveThreads, s.TerminatedThreads)

	if len(m.TerminatedThreads) > 0 {
		fmt.Fprintf(&b, "  Terminated: %s\n", strings.Join(m.TerminatedThreads, ", "))
	}

	fmt.Fprintf(&b, "Message types: %d\n", s.MessageTypes)

	if f.opts.Verbose && len(report.Files) > 0 {
		b.WriteString("\nFiles:\n")
		for _, file := range report.Files {
			fmt.Fprintf(&b, "  %-40s %6d line(s)  %s\n", file.Name, file.Lines, humanize.Bytes(uint64(file.Bytes)))
		}
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "Summary: %d files written (%s)\n", s.FilesWritten, humanize.Bytes(uint64(s.BytesWritten)))

	if f.opts.Verbose {
		if m.RunID != "" {
			fmt.Fprintf(&b, "Run: %s\n", m.RunID)
		}
		fmt.Fprintf(&b, "Missing policy: %s\n", m.MissingPolicy)
		fmt.Fprintf(&b, "Duration: %s\n", m.Duration.Round(1e6))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
