package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// maxLineBytes bounds a single corpus line. Product pages with large
// review sets stay well under this.
const maxLineBytes = 16 << 20

// FileSource streams Documents from a line-delimited JSON corpus file.
// Malformed lines and lines without a URL are logged, counted, and
// skipped; they never reach the pipeline.
type FileSource struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int
	skipped int
	logger  *slog.Logger
}

// OpenFile opens a JSONL corpus file for streaming.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file %s: %w", path, err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	return &FileSource{
		f:       f,
		scanner: scanner,
		logger:  slog.Default().With("component", "corpus-reader"),
	}, nil
}

// Next returns the next well-formed document in file order, or io.EOF
// once the file is exhausted.
func (s *FileSource) Next() (*Document, error) {
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.skipped++
			s.logger.Warn("skipping malformed corpus line",
				"line", s.line,
				"error", err,
			)
			continue
		}
		if rec.URL == "" {
			s.skipped++
			s.logger.Warn("skipping corpus line without url", "line", s.line)
			continue
		}
		return NewDocument(rec), nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus at line %d: %w", s.line, err)
	}
	return nil, io.EOF
}

// Skipped reports how many lines were dropped as malformed or URL-less.
func (s *FileSource) Skipped() int {
	return s.skipped
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}
