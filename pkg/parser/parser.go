package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSource implements LineSource for a single log file or reader.
type FileSource struct {
	path    string
	matcher *LineMatcher

	file    *os.File
	reader  io.Reader
	lines   *bufio.Reader
	lineNum int
	stats   Stats
	done    bool
}

// NewFileSource creates a LineSource that reads the file at path.
// The file is opened lazily on the first call to Next.
func NewFileSource(path string, matcher *LineMatcher) *FileSource {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	return &FileSource{
		path:    path,
		matcher: matcher,
	}
}

// NewReaderSource creates a LineSource over an already open reader.
// name is reported as the Source of every line.
func NewReaderSource(r io.Reader, name string, matcher *LineMatcher) *FileSource {
	s := NewFileSource(name, matcher)
	s.reader = r
	return s
}

// Open opens the underlying file without reading from it, so a missing
// input can be reported before any other work happens.
func (s *FileSource) Open() error {
	if s.lines != nil || s.done {
		return nil
	}

	r := s.reader
	if r == nil {
		f, err := os.Open(s.path) // #nosec G304 -- user-provided paths are expected
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", s.path, err)
		}
		s.file = f
		r = f
	}

	s.lines = bufio.NewReader(r)
	return nil
}

// ReadLine returns the next line of r without its trailing "\n". Lines have
// no length limit and a "\r" before the newline is kept. ok is false once r
// is exhausted.
func ReadLine(r *bufio.Reader) (line string, ok bool, err error) {
	line, err = r.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return line, line != "", nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSuffix(line, "\n"), true, nil
}

// Next returns the next line matching the thread line pattern.
// Returns io.EOF when the input has been exhausted.
func (s *FileSource) Next(ctx context.Context) (*ParsedLine, error) {
	if s.done {
		return nil, io.EOF
	}
	if err := s.Open(); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, ok, err := ReadLine(s.lines)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.path, err)
		}
		if !ok {
			s.done = true
			if err := s.Close(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		s.lineNum++
		s.stats.LinesRead++

		threadID, messageType, ok := s.matcher.Match(line)
		if !ok {
			s.stats.LinesSkipped++
			continue
		}

		s.stats.LinesMatched++
		return &ParsedLine{
			Raw:         line,
			ThreadID:    threadID,
			MessageType: messageType,
			Source:      s.path,
			LineNum:     s.lineNum,
		}, nil
	}
}

// Stats reports counts for the lines read so far.
func (s *FileSource) Stats() Stats {
	return s.stats
}

// Close releases the underlying file, if this source opened one.
func (s *FileSource) Close() error {
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}
