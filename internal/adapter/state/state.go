// Package state persists whether an alert is currently in effect.
//
// The alert state is a single bit between invocations. FileStore keeps it as
// the presence of a zero-byte marker file; MemoryStore keeps it in process for
// tests and dry runs.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// FileStore reads and writes the marker file on every call. It holds no
// cached copy, so an operator deleting the file resets the alert.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the marker file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path is the marker file location.
func (s *FileStore) Path() string { return s.path }

// IsActive reports whether the marker file exists.
func (s *FileStore) IsActive() (bool, error) {
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("check alert marker: %w", err)
	}
}

// Activate creates the marker file. Calling it while active is a no-op and
// leaves the existing file untouched.
func (s *FileStore) Activate() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create alert marker: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create alert marker: %w", err)
	}
	return nil
}

// Clear removes the marker file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove alert marker: %w", err)
	}
	return nil
}

// MemoryStore is an in-process alert flag.
type MemoryStore struct {
	mu     sync.Mutex
	active bool
}

// NewMemoryStore returns a store starting in the given state.
func NewMemoryStore(active bool) *MemoryStore {
	return &MemoryStore{active: active}
}

func (s *MemoryStore) IsActive() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func (s *MemoryStore) Activate() error {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	return nil
}
