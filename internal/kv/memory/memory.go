package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"presupuesto/internal/kv"
)

type Store struct {
	mu    sync.Mutex
	items map[string]string
}

// Ensure interface conformance
var (
	_ kv.Store       = (*Store)(nil)
	_ kv.BatchWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{items: make(map[string]string)}
}

// NewFromFile seeds the store from a JSON object of string values, e.g. a
// dump of the browser's localStorage. A missing or unreadable file yields
// an empty store.
func NewFromFile(path string) *Store {
	s := New()
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return s
	}
	var seed map[string]string
	if err := json.Unmarshal(b, &seed); err != nil {
		return s
	}
	for k, v := range seed {
		s.items[k] = v
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok, nil
}

// SetMany stores every entry under a single lock.
func (s *Store) SetMany(_ context.Context, entries map[string]string) error {
	for k := range entries {
		if k == "" {
			return fmt.Errorf("empty key")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.items[k] = v
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
