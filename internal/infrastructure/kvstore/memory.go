package kvstore

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe in-process Store. It is the default backend
// for single-node deployments and the substrate used by tests.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     map[string][]byte
	subscribers map[int]func(key string)
	nextSubID   int
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string][]byte),
		subscribers: make(map[int]func(key string)),
	}
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set overwrites the value under key and synchronously notifies every
// subscriber, the writer's own subscriptions included.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.entries[key] = stored
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Notify outside the lock so subscribers may read the store.
	for _, fn := range fns {
		fn(key)
	}
	return nil
}

// Subscribe registers a change listener and returns its cancel function.
func (s *MemoryStore) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
