package parser

import "regexp"

// LinePattern is the fixed shape of a thread log line:
//
//	ThreadId(<id>): [<message_type>] <free text>
//
// Both groups are greedy and '.' does not match a newline, so the message
// type runs to the last "] " on the line.
const LinePattern = `ThreadId\((.*)\): \[(.*)\] .*`

var defaultMatcher = NewLineMatcher()

// LineMatcher extracts the thread id and message type from log lines.
type LineMatcher struct {
	pattern *regexp.Regexp
}

// NewLineMatcher creates a matcher for LinePattern.
func NewLineMatcher() *LineMatcher {
	return &LineMatcher{pattern: regexp.MustCompile(LinePattern)}
}

// DefaultMatcher returns the shared LinePattern matcher.
func DefaultMatcher() *LineMatcher {
	return defaultMatcher
}

// Match returns the thread id and message type of a line.
// ok is false when the line does not have the expected shape.
func (m *LineMatcher) Match(line string) (threadID, messageType string, ok bool) {
	matches := m.pattern.FindStringSubmatch(line)
	if len(matches) < 3 {
		return "", "", false
	}
	return matches[1], matches[2], true
}
