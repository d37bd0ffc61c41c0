package partition

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ccollicutt/threadsplit/pkg/parser"
)

const mixedLog = `ThreadId(1): [Init] starting up
ThreadId(2): [Init] starting up
garbage that should be dropped
ThreadId(1): [Ready] waiting
ThreadId(3): [Init] starting up
ThreadId(2): [Work] job 1
ThreadId(1): [Ready] still waiting
ThreadId(3): [thread_terminated] done
ThreadId(2): [Work] job 2
`

func ingestString(t *testing.T, content string) *Partition {
	t.Helper()
	p := New()
	source := parser.NewReaderSource(strings.NewReader(content), "history", nil)
	if err := p.Ingest(context.Background(), source); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return p
}

func threadIDs(bundles []*Bundle) []string {
	ids := make([]string, 0, len(bundles))
	for _, b := range bundles {
		ids = append(ids, b.ThreadID)
	}
	return ids
}

func TestPartition_ExampleScenario(t *testing.T) {
	p := New()
	source := parser.NewFileSource(filepath.Join("testdata", "history"), nil)
	defer source.Close()

	if err := p.Ingest(context.Background(), source); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if !p.IsTerminated("2") {
		t.Error("thread 2 should be terminated")
	}
	if p.IsTerminated("1") {
		t.Error("thread 1 should be active")
	}

	if diff := cmp.Diff([]string{"1"}, threadIDs(p.ActiveThreads())); diff != "" {
		t.Errorf("ActiveThreads() mismatch (-want +got):\n%s", diff)
	}

	thread1 := p.Thread("1")
	wantAll := []string{
		"ThreadId(1): [Init] starting up",
		"ThreadId(1): [Ready] waiting",
		"ThreadId(1): [Ready] still waiting",
	}
	if diff := cmp.Diff(wantAll, thread1.All()); diff != "" {
		t.Errorf("thread 1 all mismatch (-want +got):\n%s", diff)
	}

	wantReady := []string{
		"ThreadId(1): [Ready] waiting",
		"ThreadId(1): [Ready] still waiting",
	}
	if diff := cmp.Diff(wantReady, thread1.Lines("Ready")); diff != "" {
		t.Errorf("thread 1 Ready mismatch (-want +got):\n%s", diff)
	}

	wantInit := []LastSeenEntry{{ThreadID: "1", Line: "ThreadId(1): [Init] starting up", Found: true}}
	if diff := cmp.Diff(wantInit, p.LastSeen("Init")); diff != "" {
		t.Errorf("LastSeen(Init) mismatch (-want +got):\n%s", diff)
	}

	wantLastReady := []LastSeenEntry{{ThreadID: "1", Line: "ThreadId(1): [Ready] still waiting", Found: true}}
	if diff := cmp.Diff(wantLastReady, p.LastSeen("Ready")); diff != "" {
		t.Errorf("LastSeen(Ready) mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition_EveryLineInTwoBuckets(t *testing.T) {
	p := ingestString(t, mixedLog)

	counts := make(map[string]int)
	for _, b := range p.Threads() {
		for _, line := range b.All() {
			counts[line]++
		}
		for _, mt := range b.MessageTypes() {
			for _, line := range b.Lines(mt) {
				counts[line]++
			}
		}
	}

	matcher := parser.NewLineMatcher()
	for _, line := range strings.Split(strings.TrimSpace(mixedLog), "\n") {
		_, _, ok := matcher.Match(line)
		want := 0
		if ok {
			want = 2
		}
		if counts[line] != want {
			t.Errorf("line %q appears in %d buckets, want %d", line, counts[line], want)
		}
	}
}

func TestPartition_OrderPreserved(t *testing.T) {
	p := ingestString(t, mixedLog)

	original := strings.Split(strings.TrimSpace(mixedLog), "\n")
	matcher := parser.NewLineMatcher()

	for _, b := range p.Threads() {
		keys := append([]string{AllKey}, b.MessageTypes()...)
		for _, key := range keys {
			var want []string
			for _, line := range original {
				thread, mt, ok := matcher.Match(line)
				if !ok || thread != b.ThreadID {
					continue
				}
				if key == AllKey || mt == key {
					want = append(want, line)
				}
			}
			if diff := cmp.Diff(want, b.Lines(key)); diff != "" {
				t.Errorf("thread %s bucket %s mismatch (-want +got):\n%s", b.ThreadID, key, diff)
			}
		}
	}
}

func TestPartition_ThreadOrderIsFirstSeen(t *testing.T) {
	p := ingestString(t, `ThreadId(b): [X] 1
ThreadId(a): [X] 2
ThreadId(b): [Y] 3
ThreadId(c): [Y] 4
ThreadId(a): [X] 5
`)

	if diff := cmp.Diff([]string{"b", "a", "c"}, threadIDs(p.Threads())); diff != "" {
		t.Errorf("Threads() order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"X", "Y"}, p.MessageTypes()); diff != "" {
		t.Errorf("MessageTypes() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"X", "Y"}, p.Thread("b").MessageTypes()); diff != "" {
		t.Errorf("thread b MessageTypes() mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition_RegistryIncludesTerminatedThreads(t *testing.T) {
	p := ingestString(t, `ThreadId(1): [Init] up
ThreadId(2): [OnlyHere] something
ThreadId(2): [thread_terminated] done
`)

	if diff := cmp.Diff([]string{"Init", "OnlyHere", "thread_terminated"}, p.MessageTypes()); diff != "" {
		t.Errorf("MessageTypes() mismatch (-want +got):\n%s", diff)
	}

	want := []LastSeenEntry{{ThreadID: "1", Found: false}}
	if diff := cmp.Diff(want, p.LastSeen("OnlyHere")); diff != "" {
		t.Errorf("LastSeen(OnlyHere) mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition_TerminationOnlyCountsLastLine(t *testing.T) {
	p := ingestString(t, `ThreadId(1): [Status] thread_terminated early
ThreadId(1): [Status] restarted
ThreadId(2): [Status] ok
ThreadId(2): [Exit] reason=thread_terminated
`)

	if p.IsTerminated("1") {
		t.Error("thread 1 ended with a normal line and should be active")
	}
	if !p.IsTerminated("2") {
		t.Error("thread 2 last line contains the marker and should be terminated")
	}
	if diff := cmp.Diff([]string{"2"}, threadIDs(p.TerminatedThreads())); diff != "" {
		t.Errorf("TerminatedThreads() mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition_IsTerminatedUnknownThread(t *testing.T) {
	p := New()
	if p.IsTerminated("missing") {
		t.Error("unknown thread should not be terminated")
	}
	if p.Thread("missing") != nil {
		t.Error("Thread() should return nil for unknown thread")
	}
}

func TestPartition_MalformedLinesIgnored(t *testing.T) {
	p := ingestString(t, "not a thread line\n\nThreadId(1) [Init] missing colon\n")

	if len(p.Threads()) != 0 {
		t.Errorf("Threads() = %d, want 0", len(p.Threads()))
	}
	if len(p.MessageTypes()) != 0 {
		t.Errorf("MessageTypes() = %d, want 0", len(p.MessageTypes()))
	}
}

func TestPartition_MessageTypeNamedAll(t *testing.T) {
	p := New()
	p.Add("1", "Init", "ThreadId(1): [Init] up")
	p.Add("1", AllKey, "ThreadId(1): [all] hello")

	b := p.Thread("1")
	if len(b.All()) != 2 {
		t.Errorf("All() = %d lines, want 2 (no double counting)", len(b.All()))
	}
	line, ok := b.LastOf(AllKey)
	if !ok || line != "ThreadId(1): [all] hello" {
		t.Errorf("LastOf(all) = %q, %v", line, ok)
	}
}

func TestPartition_Stats(t *testing.T) {
	p := ingestString(t, mixedLog)

	want := Stats{
		LinesIngested:     8,
		Threads:           3,
		ActiveThreads:     2,
		TerminatedThreads: 1,
		MessageTypes:      4,
	}
	if diff := cmp.Diff(want, p.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition_IngestCancelled(t *testing.T) {
	p := New()
	source := parser.NewReaderSource(strings.NewReader(mixedLog), "history", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Ingest(ctx, source)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ingest() error = %v, want context.Canceled", err)
	}
}

func TestPartition_IngestMissingFile(t *testing.T) {
	p := New()
	source := parser.NewFileSource("/nonexistent/history", nil)

	if err := p.Ingest(context.Background(), source); err == nil {
		t.Error("Ingest() expected error for missing file")
	}
}

// failingSource yields one line and then a read error.
type failingSource struct {
	err  error
	sent bool
}

func (s *failingSource) Next(context.Context) (*parser.ParsedLine, error) {
	if s.sent {
		return nil, s.err
	}
	s.sent = true
	return &parser.ParsedLine{Raw: "ThreadId(1): [Init] up", ThreadID: "1", MessageType: "Init"}, nil
}

func (s *failingSource) Stats() parser.Stats { return parser.Stats{} }
func (s *failingSource) Close() error        { return nil }

func TestPartition_IngestReturnsSourceError(t *testing.T) {
	readErr := errors.New("read history: input/output error")
	p := New()

	err := p.Ingest(context.Background(), &failingSource{err: readErr})
	if err != readErr {
		t.Errorf("Ingest() error = %v, want the source error unchanged", err)
	}
}

func TestBundle_LastOfMissing(t *testing.T) {
	b := newBundle("1")
	if b.Last() != "" {
		t.Errorf("Last() on empty bundle = %q", b.Last())
	}
	if _, ok := b.LastOf("Init"); ok {
		t.Error("LastOf() on empty bundle should not be ok")
	}
	if b.Lines("Init") != nil {
		t.Error("Lines() for unknown type should be nil")
	}
}
