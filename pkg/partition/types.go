// Package partition groups thread log lines by thread and message type and
// decides which threads are still active.
package partition

// TerminationMarker marks the final line of a finished thread.
const TerminationMarker = "thread_terminated"

// Stats summarizes a partition.
type Stats struct {
	// LinesIngested is the number of matched lines grouped.
	LinesIngested int

	// Threads is the number of distinct thread ids.
	Threads int

	// ActiveThreads is the number of threads whose last line is not a termination.
	ActiveThreads int

	// TerminatedThreads is Threads minus ActiveThreads.
	TerminatedThreads int

	// MessageTypes is the size of the message type registry.
	MessageTypes int
}

// LastSeenEntry is one active thread's contribution to a last_<type> summary.
type LastSeenEntry struct {
	ThreadID string

	// Line is the thread's most recent line of the type, empty if not Found.
	Line string

	// Found is false when the thread never emitted the type.
	Found bool
}
