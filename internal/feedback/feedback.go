// Package feedback emits per-check scores to an append-only sink. Entries
// are written for external aggregation and never read back.
package feedback

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Entry is one named score for one test case.
type Entry struct {
	Case  string  `json:"case"`
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Sink receives entries. Implementations must be safe for concurrent use.
type Sink interface {
	Report(e Entry) error
}

// ConsoleSink writes entries as single lines to w.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Report(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "  %s %s=%.3f\n", e.Case, e.Key, e.Score)
	return err
}

// JSONLSink appends entries as JSON lines to a file.
type JSONLSink struct {
	mu sync.Mutex
	f  *os.File
}

func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("feedback: opening %s: %w", path, err)
	}
	return &JSONLSink{f: f}, nil
}

func (s *JSONLSink) Report(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("feedback: marshaling entry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("feedback: appending entry: %w", err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	return s.f.Close()
}

// MemorySink collects entries for tests.
type MemorySink struct {
	mu      sync.Mutex
	Entries []Entry
}

func (s *MemorySink) Report(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, e)
	return nil
}

// ByKey returns the recorded entries for one case/key pair.
func (s *MemorySink) ByKey(caseID, key string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.Entries {
		if e.Case == caseID && e.Key == key {
			out = append(out, e)
		}
	}
	return out
}
