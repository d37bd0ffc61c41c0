package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func createTestReport() *Report {
	return &Report{
		Summary: Summary{
			LinesRead:         1200,
			LinesMatched:      1198,
			LinesSkipped:      2,
			Threads:           3,
			ActiveThreads:     2,
			TerminatedThreads: 1,
			MessageTypes:      4,
			FilesWritten:      2,
			BytesWritten:      2048,
		},
		Files: []FileEntry{
			{Name: "thread_1_all", Kind: KindThreadAll, ThreadID: "1", Lines: 10, Bytes: 1024},
			{Name: "last_Init", Kind: KindLastSeen, MessageType: "Init", Lines: 2, Bytes: 1024},
		},
		Metadata: Metadata{
			Input:             "./history",
			OutputDir:         "./logs",
			MissingPolicy:     "skip",
			TerminatedThreads: []string{"7"},
			StartedAt:         time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			Duration:          1500 * time.Millisecond,
		},
	}
}

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	checks := []string{
		"threadsplit Report",
		"Input:      ./history",
		"Output dir: ./logs",
		"1,200 read, 1,198 matched, 2 skipped",
		"2 active, 1 terminated",
		"Terminated: 7",
		"Message types: 4",
		"2 files written (2.0 kB)",
	}
	for _, check := range checks {
		if !strings.Contains(output, check) {
			t.Errorf("Output missing %q\n%s", check, output)
		}
	}

	if strings.Contains(output, "thread_1_all") {
		t.Error("Non-verbose output should not list files")
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, check := range []string{"Files:", "thread_1_all", "last_Init", "Missing policy: skip", "Duration: 1.5s"} {
		if !strings.Contains(output, check) {
			t.Errorf("Verbose output missing %q", check)
		}
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "threadsplit: 3 threads (2 active, 1 terminated), 4 message types, 2 files written\n"
	if buf.String() != want {
		t.Errorf("Quiet output = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter_Format_Empty(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), &Report{}, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "0 files written (0 B)") {
		t.Errorf("Output missing empty summary:\n%s", output)
	}
	if strings.Contains(output, "Terminated:") {
		t.Error("Output should not list terminated threads when there are none")
	}
}
