// Package orderlog is the kitchen's append-only order log: one JSON line per
// logged order, human-auditable with standard tooling.
package orderlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type Config struct {
	Path string `split_words:"true" default:"orders_log.jsonl"`
}

// File appends rows to a local file. The mutex plus a single Write per row
// keeps concurrent appends from interleaving.
type File struct {
	mu   sync.Mutex
	path string
}

func New(cfg Config) *File {
	path := cfg.Path
	if path == "" {
		path = "orders_log.jsonl"
	}
	return &File{path: path}
}

func (f *File) Append(_ context.Context, row map[string]any) error {
	line, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal order row: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open order log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("append order row: %w", err)
	}
	return nil
}
