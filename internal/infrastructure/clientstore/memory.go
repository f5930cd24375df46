package clientstore

import (
	"context"
	"sync"
)

// MemoryStore is the single-process fallback used when no Redis address
// is configured. Mappings last until the process exits.
type MemoryStore struct {
	mu sync.RWMutex
	kv map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv[key], nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}
