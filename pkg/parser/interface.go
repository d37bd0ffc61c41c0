package parser

import "context"

// LineSource provides an iterator over matched log lines.
// Implementations must be safe for sequential access (not concurrent).
type LineSource interface {
	// Next returns the next matched log line.
	// Returns io.EOF when no more lines are available.
	// Lines that do not match the thread line pattern are skipped.
	Next(ctx context.Context) (*ParsedLine, error)

	// Stats reports counts for the lines read so far.
	Stats() Stats

	// Close releases any resources held by the source.
	Close() error
}
