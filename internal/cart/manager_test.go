package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/novamart/storefront-backend/pkg/events"
)

func TestManagerRehydratesOnFirstAccess(t *testing.T) {
	snaps := newFakeSnapshots()
	snaps.saved["cart-1"] = []LineItem{{ID: "a", Title: "A", Price: price("2"), Quantity: 3}}

	manager, err := NewManager(snaps, events.NewBus(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store, err := manager.Store(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := store.State()
	if len(state.Items) != 1 || state.Items[0].Quantity != 3 {
		t.Fatalf("expected rehydrated cart, got %+v", state.Items)
	}
	if !state.Total.Equal(price("6")) {
		t.Fatalf("expected total recomputed on rehydrate, got %s", state.Total)
	}
}

func TestManagerReturnsSameStoreForKey(t *testing.T) {
	manager, err := NewManager(newFakeSnapshots(), events.NewBus(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := manager.Store(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := manager.Store(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the same store instance for the same key")
	}

	other, err := manager.Store(context.Background(), "cart-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other == first {
		t.Fatal("expected distinct stores for distinct keys")
	}
}

func TestManagerStartsEmptyOnLoadFailure(t *testing.T) {
	snaps := newFakeSnapshots()
	snaps.loadErr = errors.New("backend down")

	manager, err := NewManager(snaps, events.NewBus(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store, err := manager.Store(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("load failure must not surface: %v", err)
	}
	if got := store.State(); len(got.Items) != 0 {
		t.Fatalf("expected empty cart on load failure, got %+v", got.Items)
	}
}

func TestManagerRejectsEmptyKey(t *testing.T) {
	manager, err := NewManager(newFakeSnapshots(), events.NewBus(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := manager.Store(context.Background(), "   "); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

func TestManagerEvict(t *testing.T) {
	snaps := newFakeSnapshots()
	manager, err := NewManager(snaps, events.NewBus(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store, _ := manager.Store(context.Background(), "cart-1")
	store.AddItem(context.Background(), AddInput{ID: "a", Title: "A", Price: price("1")})

	manager.Evict("cart-1")

	again, err := manager.Store(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again == store {
		t.Fatal("expected a fresh store after eviction")
	}
	// eviction leaves durable storage alone, so the items come back
	if got := again.State(); len(got.Items) != 1 {
		t.Fatalf("expected rehydrate from snapshot after evict, got %+v", got.Items)
	}
}

func TestNewManagerValidatesDeps(t *testing.T) {
	if _, err := NewManager(nil, events.NewBus(), nil); err == nil {
		t.Fatal("expected error for nil snapshot store")
	}
	if _, err := NewManager(newFakeSnapshots(), nil, nil); err == nil {
		t.Fatal("expected error for nil event bus")
	}
}
