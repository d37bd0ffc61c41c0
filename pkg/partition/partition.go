package partition

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ccollicutt/threadsplit/pkg/parser"
)

// Partition groups matched lines per thread and tracks every message type
// seen in the input. Threads and message types keep first-seen order.
type Partition struct {
	threads map[string]*Bundle
	order   []string

	registry   []string
	registered map[string]bool

	lines  int
	logger *zap.Logger
}

// Option configures a Partition.
type Option func(*Partition)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Partition) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates an empty partition.
func New(opts ...Option) *Partition {
	p := &Partition{
		threads:    make(map[string]*Bundle),
		registered: make(map[string]bool),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest reads every line from source and groups it.
func (p *Partition) Ingest(ctx context.Context, source parser.LineSource) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		p.Add(line.ThreadID, line.MessageType, line.Raw)
	}

	stats := source.Stats()
	p.logger.Debug("ingested log",
		zap.Int("lines_read", stats.LinesRead),
		zap.Int("lines_matched", stats.LinesMatched),
		zap.Int("lines_skipped", stats.LinesSkipped),
		zap.Int("threads", len(p.order)),
		zap.Int("message_types", len(p.registry)))

	return nil
}

// Add records one line under its thread's all bucket and its message type
// bucket, and registers the message type.
func (p *Partition) Add(threadID, messageType, line string) {
	p.bundle(threadID).add(messageType, line)

	if !p.registered[messageType] {
		p.registered[messageType] = true
		p.registry = append(p.registry, messageType)
	}
	p.lines++
}

// bundle returns the bundle for threadID, creating it on first use.
func (p *Partition) bundle(threadID string) *Bundle {
	b, ok := p.threads[threadID]
	if !ok {
		b = newBundle(threadID)
		p.threads[threadID] = b
		p.order = append(p.order, threadID)
	}
	return b
}

// Thread returns the bundle for a thread id, or nil if it was never seen.
func (p *Partition) Thread(threadID string) *Bundle {
	return p.threads[threadID]
}

// IsTerminated reports whether the thread's last line contains the
// termination marker. Unknown threads are not terminated.
func (p *Partition) IsTerminated(threadID string) bool {
	b, ok := p.threads[threadID]
	if !ok {
		return false
	}
	return isTermination(b.Last())
}

func isTermination(line string) bool {
	return strings.Contains(line, TerminationMarker)
}

// Threads returns every bundle in first-seen order.
func (p *Partition) Threads() []*Bundle {
	bundles := make([]*Bundle, 0, len(p.order))
	for _, id := range p.order {
		bundles = append(bundles, p.threads[id])
	}
	return bundles
}

// ActiveThreads returns the bundles of non-terminated threads in first-seen order.
func (p *Partition) ActiveThreads() []*Bundle {
	return p.filter(false)
}

// TerminatedThreads returns the bundles of terminated threads in first-seen order.
func (p *Partition) TerminatedThreads() []*Bundle {
	return p.filter(true)
}

func (p *Partition) filter(terminated bool) []*Bundle {
	var bundles []*Bundle
	for _, id := range p.order {
		b := p.threads[id]
		if isTermination(b.Last()) == terminated {
			bundles = append(bundles, b)
		}
	}
	return bundles
}

// MessageTypes returns every message type seen in the input, active or
// terminated threads alike, in first-seen order.
func (p *Partition) MessageTypes() []string {
	return p.registry
}

// LastSeen returns, for each active thread in first-seen order, its most
// recent line of messageType.
func (p *Partition) LastSeen(messageType string) []LastSeenEntry {
	active := p.ActiveThreads()
	entries := make([]LastSeenEntry, 0, len(active))
	for _, b := range active {
		line, ok := b.LastOf(messageType)
		entries = append(entries, LastSeenEntry{
			ThreadID: b.ThreadID,
			Line:     line,
			Found:    ok,
		})
	}
	return entries
}

// Stats summarizes the partition.
func (p *Partition) Stats() Stats {
	active := len(p.ActiveThreads())
	return Stats{
		LinesIngested:     p.lines,
		Threads:           len(p.order),
		ActiveThreads:     active,
		TerminatedThreads: len(p.order) - active,
		MessageTypes:      len(p.registry),
	}
}
