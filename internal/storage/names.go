package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vaultScope/internal/model"
)

// NamesPath returns the strategy name file kept next to an events file:
// data/events.jsonl pairs with data/events.names.json.
func NamesPath(eventsPath string) string {
	return strings.TrimSuffix(eventsPath, filepath.Ext(eventsPath)) + ".names.json"
}

// PutStrategyNames merges names into the file next to the events file.
// Names already stored are kept.
func (s *JsonlStorage) PutStrategyNames(ctx context.Context, names model.StrategyNames) error {
	if len(names) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := NamesPath(s.path)
	stored, err := ReadStrategyNames(path)
	if err != nil {
		return err
	}
	stored.Merge(names)

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal strategy names: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write strategy names: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace strategy names: %w", err)
	}
	return nil
}

// ReadStrategyNames loads a names file. A missing file yields an empty map.
func ReadStrategyNames(path string) (model.StrategyNames, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.StrategyNames{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read strategy names: %w", err)
	}
	names := model.StrategyNames{}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode strategy names %s: %w", path, err)
	}
	return names, nil
}
