package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"vaultScope/internal/model"
)

// JsonlStorage writes events to a JSONL file, one tagged event per line.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEventBatch appends a batch of events as JSON lines.
func (s *JsonlStorage) PutEventBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", event.Header().ID, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// ReadStats counts lines seen while reading a JSONL file.
type ReadStats struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
}

// ReadEvents decodes every line of r. Blank lines are skipped; lines that do
// not decode are counted and passed to onError when it is non-nil.
func ReadEvents(r io.Reader, onError func(line int, err error)) ([]model.Event, ReadStats, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var stats ReadStats
	var events []model.Event
	for scanner.Scan() {
		stats.Total++
		line := scanner.Bytes()
		if len(line) == 0 {
			stats.Skipped++
			continue
		}
		event, err := model.DecodeEvent(line)
		if err != nil {
			stats.Failed++
			if onError != nil {
				onError(stats.Total, err)
			}
			continue
		}
		stats.Decoded++
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return events, stats, fmt.Errorf("scan input: %w", err)
	}
	return events, stats, nil
}

// ReadEventsFile opens path and calls ReadEvents.
func ReadEventsFile(path string, onError func(line int, err error)) ([]model.Event, ReadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return ReadEvents(file, onError)
}
