package partition

// AllKey is the bucket that holds every line of a thread.
const AllKey = "all"

// Bundle holds the lines of one thread: every line in order, and one ordered
// sequence per message type the thread emitted.
type Bundle struct {
	// ThreadID identifies the thread.
	ThreadID string

	all    []string
	types  []string
	byType map[string][]string
}

func newBundle(threadID string) *Bundle {
	return &Bundle{
		ThreadID: threadID,
		byType:   make(map[string][]string),
	}
}

// add appends a line to the all bucket and to its message type bucket.
func (b *Bundle) add(messageType, line string) {
	b.all = append(b.all, line)

	lines, ok := b.byType[messageType]
	if !ok {
		b.types = append(b.types, messageType)
	}
	b.byType[messageType] = append(lines, line)
}

// All returns every line of the thread in file order.
func (b *Bundle) All() []string {
	return b.all
}

// MessageTypes returns the thread's message types in first-seen order.
func (b *Bundle) MessageTypes() []string {
	return b.types
}

// Lines returns the lines recorded for a message type, in file order.
// AllKey returns every line.
func (b *Bundle) Lines(messageType string) []string {
	if messageType == AllKey {
		return b.all
	}
	return b.byType[messageType]
}

// Last returns the most recent line of the thread.
func (b *Bundle) Last() string {
	if len(b.all) == 0 {
		return ""
	}
	return b.all[len(b.all)-1]
}

// LastOf returns the most recent line of a message type.
// ok is false when the thread never emitted that type.
func (b *Bundle) LastOf(messageType string) (line string, ok bool) {
	lines := b.byType[messageType]
	if len(lines) == 0 {
		return "", false
	}
	return lines[len(lines)-1], true
}
