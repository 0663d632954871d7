package snapshot

import (
	"context"
	"sync"

	"github.com/novamart/storefront-backend/internal/cart"
)

// MemoryStore keeps serialized snapshots in memory. Used by tests and local
// development; it still round-trips through the codec so malformed-data
// behavior matches the durable backends.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string][]byte{}}
}

func (s *MemoryStore) Save(_ context.Context, key string, items []cart.LineItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]cart.LineItem, error) {
	s.mu.RLock()
	data, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeItems(data)
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Seed writes raw bytes for a key, bypassing the codec. Test helper for
// malformed-snapshot scenarios.
func (s *MemoryStore) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = data
}
