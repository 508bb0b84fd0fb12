// Package store provides a file-backed JSON document store with serialized
// read-modify-write updates. Each store instance owns one file; concurrent
// writers within the process are serialized by an instance-scoped lock.
// There is no cross-process coordination.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists a single document of type T as a JSON file.
type Store[T any] struct {
	path string
	mu   sync.Mutex
}

// New creates a store backed by the given file path. The file is not touched
// until the first Update.
func New[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Read returns the current document. A missing file yields the zero value of
// T; a file that exists but cannot be decoded is a surfaced error so on-disk
// corruption never goes unnoticed.
func (s *Store[T]) Read() (T, error) {
	var doc T

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("read store %s: %w", s.path, err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode store %s: %w", s.path, err)
	}
	return doc, nil
}

// Update applies mutate to the current document and writes the whole document
// back. Updates are serialized per store instance, so concurrent callers never
// lose each other's changes.
func (s *Store[T]) Update(mutate func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Read()
	if err != nil {
		return err
	}

	mutate(&doc)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store %s: %w", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store %s: %w", s.path, err)
	}
	return nil
}
