// Package output writes partitioned thread logs to disk and renders the run report.
package output

import (
	"time"

	"github.com/ccollicutt/threadsplit/pkg/parser"
	"github.com/ccollicutt/threadsplit/pkg/partition"
)

// FileKind identifies which pass produced a file.
type FileKind string

const (
	// KindThreadAll is thread_<ID>_all.
	KindThreadAll FileKind = "thread_all"
	// KindThreadMessage is thread_<ID>_<TYPE>.
	KindThreadMessage FileKind = "thread_message"
	// KindLastSeen is last_<TYPE>.
	KindLastSeen FileKind = "last_seen"
)

// FileEntry describes one written file.
type FileEntry struct {
	// Name is the file name inside the output directory.
	Name string

	Kind        FileKind
	ThreadID    string
	MessageType string

	// Lines is the number of lines written, including blank placeholders.
	Lines int

	// Bytes is the size of the file.
	Bytes int64
}

// Report is the complete run output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Files lists every file written, in write order.
	Files []FileEntry

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	// LinesRead is the number of input lines scanned.
	LinesRead int

	// LinesMatched is the number of lines that matched the thread line pattern.
	LinesMatched int

	// LinesSkipped is the number of lines dropped because they did not match.
	LinesSkipped int

	Threads           int
	ActiveThreads     int
	TerminatedThreads int
	MessageTypes      int

	// FilesWritten is len(Files).
	FilesWritten int

	// BytesWritten is the total size of all written files.
	BytesWritten int64
}

// Metadata provides context about the run.
type Metadata struct {
	// RunID identifies this run to webhook receivers.
	RunID string

	// Input is the log file that was partitioned.
	Input string

	// OutputDir is where files were written.
	OutputDir string

	// MissingPolicy is the last_seen policy that was applied.
	MissingPolicy string

	// TerminatedThreads lists the ids of threads excluded from output.
	TerminatedThreads []string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration
}

// NewReport creates a Report from the source counters, the partition and the
// files that were written.
func NewReport(src parser.Stats, p *partition.Partition, files []FileEntry, meta Metadata) *Report {
	stats := p.Stats()

	report := &Report{
		Files:    files,
		Metadata: meta,
		Summary: Summary{
			LinesRead:         src.LinesRead,
			LinesMatched:      src.LinesMatched,
			LinesSkipped:      src.LinesSkipped,
			Threads:           stats.Threads,
			ActiveThreads:     stats.ActiveThreads,
			TerminatedThreads: stats.TerminatedThreads,
			MessageTypes:      stats.MessageTypes,
			FilesWritten:      len(files),
		},
	}

	for _, f := range files {
		report.Summary.BytesWritten += f.Bytes
	}

	if report.Metadata.TerminatedThreads == nil {
		for _, b := range p.TerminatedThreads() {
			report.Metadata.TerminatedThreads = append(report.Metadata.TerminatedThreads, b.ThreadID)
		}
	}

	return report
}

// HasIssues returns true if any input line was dropped as unparseable.
func (r *Report) HasIssues() bool {
	return r.Summary.LinesSkipped > 0
}
