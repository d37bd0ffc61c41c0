// Package parser provides log file reading and line matching for threadsplit.
package parser

// ParsedLine is a log line that matched the thread line pattern.
type ParsedLine struct {
	// Raw is the original line content without its trailing newline.
	Raw string

	// ThreadID is the identifier captured from ThreadId(...).
	ThreadID string

	// MessageType is the label captured from the bracketed segment.
	MessageType string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// Stats counts what a source has read so far.
type Stats struct {
	// LinesRead is every line scanned, matched or not.
	LinesRead int

	// LinesMatched is the number of lines returned by Next.
	LinesMatched int

	// LinesSkipped is the number of lines that did not match the pattern.
	LinesSkipped int
}
