package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in a process-local map. Used for dev runs and
// tests; entries live until Clear.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Entry)}
}

func memoryKey(namespace, fingerprint string) string {
	return namespace + "/" + fingerprint
}

func (s *MemoryStore) Get(_ context.Context, namespace, fingerprint string) (Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.items[memoryKey(namespace, fingerprint)]
	s.mu.RUnlock()
	return entry, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, namespace string, entry Entry, force bool) error {
	key := memoryKey(namespace, entry.Fingerprint)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; exists && !force {
		return nil
	}
	s.items[key] = entry
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, namespace string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if namespace == "" {
		n := len(s.items)
		s.items = make(map[string]Entry)
		return n, nil
	}

	prefix := namespace + "/"
	n := 0
	for k := range s.items {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(s.items, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of cached entries across all namespaces.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
