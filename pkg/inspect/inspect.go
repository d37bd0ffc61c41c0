// Package inspect samples a log file and reports how well it fits the thread
// line pattern before a full split is run.
package inspect

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/ccollicutt/threadsplit/pkg/parser"
	"github.com/ccollicutt/threadsplit/pkg/partition"
)

// Defaults for sampling.
const (
	DefaultSampleSize  = 100
	DefaultMaxExamples = 5
)

// Result holds the findings for a sample.
type Result struct {
	SampledLines int // Number of lines sampled
	MatchedLines int // Lines that matched the thread line pattern

	// MatchRate is MatchedLines / SampledLines, 0.0 to 1.0.
	MatchRate float64

	// Threads lists sampled threads in first-seen order.
	Threads []ThreadSummary

	// MessageTypes is sorted by count descending, then name.
	MessageTypes []TypeCount

	// Unmatched holds up to MaxExamples lines that were dropped.
	Unmatched []UnmatchedLine
}

// ThreadSummary describes one thread within the sample.
type ThreadSummary struct {
	ID         string
	Lines      int
	Terminated bool // Last sampled line carries the termination marker
}

// TypeCount counts lines of one message type.
type TypeCount struct {
	Name  string
	Count int
}

// UnmatchedLine is a sampled line that will be ignored by a split.
type UnmatchedLine struct {
	LineNum int
	Text    string
}

// HasMatch returns true if at least one sampled line matched.
func (r *Result) HasMatch() bool {
	return r.MatchedLines > 0
}

// ActiveThreads counts sampled threads that are not terminated.
func (r *Result) ActiveThreads() int {
	n := 0
	for _, t := range r.Threads {
		if !t.Terminated {
			n++
		}
	}
	return n
}

// Inspector samples log lines.
type Inspector struct {
	matcher     *parser.LineMatcher
	sampleSize  int
	maxExamples int
}

// Option configures the Inspector.
type Option func(*Inspector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(i *Inspector) {
		if n > 0 {
			i.sampleSize = n
		}
	}
}

// WithMaxExamples sets how many unmatched lines are kept (default 5).
func WithMaxExamples(n int) Option {
	return func(i *Inspector) {
		if n >= 0 {
			i.maxExamples = n
		}
	}
}

// New creates a new Inspector.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		matcher:     parser.DefaultMatcher(),
		sampleSize:  DefaultSampleSize,
		maxExamples: DefaultMaxExamples,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// InspectFile samples the head of a log file.
func (i *Inspector) InspectFile(ctx context.Context, path string) (*Result, error) {
	lines, err := i.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return i.InspectLines(lines), nil
}

// InspectLines inspects up to the sample size of the given lines.
func (i *Inspector) InspectLines(lines []string) *Result {
	if len(lines) > i.sampleSize {
		lines = lines[:i.sampleSize]
	}

	result := &Result{SampledLines: len(lines)}
	if len(lines) == 0 {
		return result
	}

	p := partition.New()
	counts := make(map[string]int)

	for n, line := range lines {
		threadID, messageType, ok := i.matcher.Match(line)
		if !ok {
			if len(result.Unmatched) < i.maxExamples {
				result.Unmatched = append(result.Unmatched, UnmatchedLine{LineNum: n + 1, Text: line})
			}
			continue
		}
		result.MatchedLines++
		counts[messageType]++
		p.Add(threadID, messageType, line)
	}

	result.MatchRate = float64(result.MatchedLines) / float64(result.SampledLines)

	for _, b := range p.Threads() {
		result.Threads = append(result.Threads, ThreadSummary{
			ID:         b.ThreadID,
			Lines:      len(b.All()),
			Terminated: p.IsTerminated(b.ThreadID),
		})
	}

	for _, name := range p.MessageTypes() {
		result.MessageTypes = append(result.MessageTypes, TypeCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(result.MessageTypes, func(a, b int) bool {
		if result.MessageTypes[a].Count != result.MessageTypes[b].Count {
			return result.MessageTypes[a].Count > result.MessageTypes[b].Count
		}
		return result.MessageTypes[a].Name < result.MessageTypes[b].Name
	})

	return result
}

// sampleFile reads up to sampleSize lines from the head of a file.
func (i *Inspector) sampleFile(ctx context.Context, path string) ([]string, error) {
	file, err := os.Open(path) // #nosec G304 -- path is provided by user via CLI
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	reader := bufio.NewReader(file)

	for len(lines) < i.sampleSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, ok, err := parser.ReadLine(reader)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if !ok {
			break
		}
		lines = append(lines, line)
	}

	return lines, nil
}
