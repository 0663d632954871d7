package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/novamart/storefront-backend/pkg/events"
	"github.com/novamart/storefront-backend/pkg/logger"
)

// Manager hands out one Store per cart key and rehydrates it from durable
// storage on first access. It replaces the ambient global store of the
// original design: everything that needs a cart receives the manager through
// its constructor.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	snapshots SnapshotStore
	bus       *events.Bus
	logg      *logger.Logger
}

// NewManager builds a cart manager backed by the provided snapshot store.
func NewManager(snapshots SnapshotStore, bus *events.Bus, logg *logger.Logger) (*Manager, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	return &Manager{
		stores:    map[string]*Store{},
		snapshots: snapshots,
		bus:       bus,
		logg:      logg,
	}, nil
}

// Store returns the cart store for the key, creating and rehydrating it on
// first access. A snapshot that fails to load or parse is treated as no saved
// cart: logged, never fatal.
func (m *Manager) Store(ctx context.Context, key string) (*Store, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("cart key required")
	}

	m.mu.Lock()
	if store, ok := m.stores[key]; ok {
		m.mu.Unlock()
		return store, nil
	}
	store := NewStore(key, m.snapshots, m.bus, m.logg)
	m.stores[key] = store
	m.mu.Unlock()

	items, err := m.snapshots.Load(ctx, key)
	if err != nil {
		if m.logg != nil {
			m.logg.Warn(m.logg.WithCartKey(ctx, key), "cart snapshot unreadable, starting empty")
		}
		return store, nil
	}
	if len(items) > 0 {
		store.Rehydrate(ctx, items)
	}
	return store, nil
}

// Evict drops the in-memory store for a key without touching durable storage.
func (m *Manager) Evict(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, key)
}
