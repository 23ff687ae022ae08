package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CSVSink appends rows to one file. Writes are serialized so concurrent
// requests never interleave lines. The header line is written only when the
// file is created.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

// NewCSVSink creates the directory if needed and returns a sink for path.
func NewCSVSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create CSV directory: %w", err)
	}
	return &CSVSink{path: path}, nil
}

// Path returns the file the sink writes to.
func (s *CSVSink) Path() string { return s.path }

// Append writes one line, preceded by the header row when the file is new.
func (s *CSVSink) Append(ctx context.Context, headers []string, row map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat CSV file: %w", err)
	}

	var buf bytes.Buffer
	if !exists {
		values := make([]any, len(headers))
		for i, h := range headers {
			values[i] = h
		}
		if err := writeLine(&buf, values); err != nil {
			return err
		}
	}
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = row[h]
	}
	if err := writeLine(&buf, values); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append CSV row: %w", err)
	}
	return f.Close()
}

// Close is a no-op; the file is reopened on every append.
func (s *CSVSink) Close() error { return nil }

// writeLine renders every value as a JSON literal joined by commas, with nil
// written as an empty string.
func writeLine(buf *bytes.Buffer, values []any) error {
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		if v == nil {
			v = ""
		}
		var cell bytes.Buffer
		enc := json.NewEncoder(&cell)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode CSV value: %w", err)
		}
		buf.Write(bytes.TrimRight(cell.Bytes(), "\n"))
	}
	buf.WriteByte('\n')
	return nil
}
