package output

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ccollicutt/threadsplit/pkg/config"
	"github.com/ccollicutt/threadsplit/pkg/partition"
)

// Default permissions for generated files and the output directory.
const (
	DefaultDirPerm  fs.FileMode = 0o755
	DefaultFilePerm fs.FileMode = 0o644
)

// Writer writes a partition into an output directory.
type Writer struct {
	dir     string
	missing config.MissingPolicy
	logger  *zap.Logger

	written map[string]bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithMissingPolicy sets how last_<type> files treat threads that never
// emitted the type.
func WithMissingPolicy(policy config.MissingPolicy) WriterOption {
	return func(w *Writer) {
		if policy != "" {
			w.missing = policy
		}
	}
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter creates a writer for dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:     dir,
		missing: config.DefaultMissing,
		logger:  zap.NewNop(),
		written: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// ResetDir removes the output directory and everything in it, then creates
// it again empty.
func (w *Writer) ResetDir() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("removing output directory %s: %w", w.dir, err)
	}
	if err := os.MkdirAll(w.dir, DefaultDirPerm); err != nil {
		return fmt.Errorf("creating output directory %s: %w", w.dir, err)
	}
	w.written = make(map[string]bool)
	w.logger.Debug("output directory reset", zap.String("dir", w.dir))
	return nil
}

// WriteAll writes the thread files and then the last-seen files.
func (w *Writer) WriteAll(p *partition.Partition) ([]FileEntry, error) {
	threadFiles, err := w.WriteThreadFiles(p)
	if err != nil {
		return threadFiles, err
	}
	lastFiles, err := w.WriteLastSeenFiles(p)
	return append(threadFiles, lastFiles...), err
}

// WriteThreadFiles writes thread_<ID>_all and one thread_<ID>_<TYPE> per
// message type for every active thread. Terminated threads are skipped.
func (w *Writer) WriteThreadFiles(p *partition.Partition) ([]FileEntry, error) {
	var entries []FileEntry

	for _, b := range p.ActiveThreads() {
		entry, err := w.writeLines(ThreadAllFileName(b.ThreadID), b.All())
		if err != nil {
			return entries, err
		}
		entry.Kind = KindThreadAll
		entry.ThreadID = b.ThreadID
		entries = append(entries, entry)

		for _, mt := range b.MessageTypes() {
			if mt == partition.AllKey {
				// Its lines are already in thread_<ID>_all.
				w.logger.Warn("message type shares the all file name, not written separately",
					zap.String("thread", b.ThreadID),
					zap.String("message_type", mt))
				continue
			}

			entry, err := w.writeLines(ThreadFileName(b.ThreadID, mt), b.Lines(mt))
			if err != nil {
				return entries, err
			}
			entry.Kind = KindThreadMessage
			entry.ThreadID = b.ThreadID
			entry.MessageType = mt
			entries = append(entries, entry)
		}
	}

	w.logger.Debug("thread files written", zap.Int("files", len(entries)))
	return entries, nil
}

// WriteLastSeenFiles writes last_<TYPE> for every message type in the
// registry. Each holds one line per active thread, its most recent line of
// that type, in first-seen thread order.
func (w *Writer) WriteLastSeenFiles(p *partition.Partition) ([]FileEntry, error) {
	var entries []FileEntry

	for _, mt := range p.MessageTypes() {
		var lines []string
		for _, e := range p.LastSeen(mt) {
			switch {
			case e.Found:
				lines = append(lines, e.Line)
			case w.missing == config.MissingBlank:
				lines = append(lines, "")
			}
		}

		entry, err := w.writeLines(LastSeenFileName(mt), lines)
		if err != nil {
			return entries, err
		}
		entry.Kind = KindLastSeen
		entry.MessageType = mt
		entries = append(entries, entry)
	}

	w.logger.Debug("last-seen files written", zap.Int("files", len(entries)))
	return entries, nil
}

// writeLines writes each line followed by a newline.
func (w *Writer) writeLines(name string, lines []string) (entry FileEntry, err error) {
	if w.written[name] {
		w.logger.Warn("file name collision, replacing earlier file", zap.String("file", name))
	}
	w.written[name] = true

	path := filepath.Join(w.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFilePerm) // #nosec G304 -- names are sanitized
	if err != nil {
		return FileEntry{}, fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	var n int64
	for _, line := range lines {
		written, err := bw.WriteString(line)
		n += int64(written)
		if err != nil {
			return FileEntry{}, fmt.Errorf("writing %s: %w", path, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return FileEntry{}, fmt.Errorf("writing %s: %w", path, err)
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		return FileEntry{}, fmt.Errorf("writing %s: %w", path, err)
	}

	return FileEntry{Name: name, Lines: len(lines), Bytes: n}, nil
}

// ErrNotDirectory is returned when the output path exists as a regular file.
var ErrNotDirectory = errors.New("output path exists and is not a directory")

// CheckDir reports whether the output path can be recreated as a directory.
// A missing path is fine.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking output directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}
