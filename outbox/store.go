// Package outbox implements the bounded, persisted retry queue for rank
// submissions that failed for retryable reasons. Records are deduplicated
// by fingerprint, evicted oldest-first at capacity, and drained in small
// batches by a single-flight replay loop.
package outbox

import (
	"context"
	"sync"
)

// Store is the key→text persistence boundary. Keys are scoped per
// identity by the caller. No transactional guarantees are assumed; the
// queue tolerates last-write-wins behavior.
type Store interface {
	// Get returns the value for key. The boolean is false when the key
	// does not exist.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store. Used in tests and as the default
// when no persistence backend is configured.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Verify MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
