package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/novamart/storefront-backend/pkg/events"
	"github.com/novamart/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// SnapshotStore persists the serialized item list between sessions. Only the
// items are stored; every derived aggregate is recomputed from them on load.
type SnapshotStore interface {
	Save(ctx context.Context, key string, items []LineItem) error
	Load(ctx context.Context, key string) ([]LineItem, error)
	Delete(ctx context.Context, key string) error
}

// State is a consistent read of the cart: items plus aggregates computed from
// them under the same lock, so no caller can observe items and totals that
// disagree.
type State struct {
	Items      []LineItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Discount   decimal.Decimal `json:"discount"`
}

// Store is the single source of truth for one cart. All mutations are
// serialized through the mutex; persistence and event publication happen on
// the mutation path but their failures never surface to the caller.
type Store struct {
	mu         sync.Mutex
	key        string
	items      []LineItem
	couponCode string
	discount   decimal.Decimal

	snapshots SnapshotStore
	bus       *events.Bus
	logg      *logger.Logger
}

// NewStore builds an empty cart store for the given key.
func NewStore(key string, snapshots SnapshotStore, bus *events.Bus, logg *logger.Logger) *Store {
	return &Store{
		key:       key,
		discount:  decimal.Zero,
		snapshots: snapshots,
		bus:       bus,
		logg:      logg,
	}
}

// Key returns the durable-storage key this cart persists under.
func (s *Store) Key() string {
	return s.key
}

// Rehydrate replaces the item list with a previously persisted snapshot.
// Invalid snapshots are discarded wholesale; a cart is never partially
// applied.
func (s *Store) Rehydrate(ctx context.Context, items []LineItem) {
	if !validSnapshot(items) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCartKey(ctx, s.key), "discarding invalid cart snapshot")
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]LineItem(nil), items...)
}

// AddItem appends the offer with quantity 1, or bumps the quantity when the
// same id is already present. The stored price always wins over the price on
// the incoming call, so a re-add can never reprice an existing line.
func (s *Store) AddItem(ctx context.Context, input AddInput) State {
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ID.Equals(input.ID) {
			s.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, input.lineItem())
	}
	state := s.stateLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, events.TypeItemAdded, input.ID.Normalized())
	return state
}

// RemoveItem deletes the matching line. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, id OfferID) State {
	s.mu.Lock()
	removed := false
	for i := range s.items {
		if s.items[i].ID.Equals(id) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			removed = true
			break
		}
	}
	state := s.stateLocked()
	if removed {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if removed {
		s.publish(ctx, events.TypeItemRemoved, id.Normalized())
	}
	return state
}

// UpdateQuantity sets the quantity exactly. Zero or negative removes the
// line; unknown ids are a silent no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id OfferID, quantity int) State {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}

	s.mu.Lock()
	updated := false
	for i := range s.items {
		if s.items[i].ID.Equals(id) {
			s.items[i].Quantity = quantity
			updated = true
			break
		}
	}
	state := s.stateLocked()
	if updated {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if updated {
		s.publish(ctx, events.TypeQuantityUpdated, id.Normalized())
	}
	return state
}

// Clear empties the cart and drops any applied coupon with it; coupon
// eligibility was computed against the items that just disappeared.
func (s *Store) Clear(ctx context.Context) State {
	s.mu.Lock()
	s.items = nil
	s.couponCode = ""
	s.discount = decimal.Zero
	state := s.stateLocked()
	s.deleteSnapshotLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, events.TypeCartCleared, "")
	return state
}

// ApplyCoupon records the code and the server-returned discount amount. The
// discount is never computed locally.
func (s *Store) ApplyCoupon(ctx context.Context, code string, discount decimal.Decimal) State {
	trimmed := strings.TrimSpace(code)

	s.mu.Lock()
	s.couponCode = trimmed
	s.discount = discount
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(ctx, events.TypeCouponApplied, trimmed)
	return state
}

// RemoveCoupon unsets the coupon fields without touching the items.
func (s *Store) RemoveCoupon(ctx context.Context) State {
	s.mu.Lock()
	s.couponCode = ""
	s.discount = decimal.Zero
	state := s.stateLocked()
	s.mu.Unlock()

	s.publish(ctx, events.TypeCouponRemoved, "")
	return state
}

// State returns a consistent view of the cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	items := append([]LineItem(nil), s.items...)
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.LineTotal())
		count += item.Quantity
	}
	return State{
		Items:      items,
		Total:      total,
		ItemCount:  count,
		CouponCode: s.couponCode,
		Discount:   s.discount,
	}
}

// persistLocked writes the item snapshot best-effort; a failed write must not
// fail the mutation that triggered it.
func (s *Store) persistLocked(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, s.key, s.items); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithCartKey(ctx, s.key), "persist cart snapshot", err)
	}
}

func (s *Store) deleteSnapshotLocked(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Delete(ctx, s.key); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithCartKey(ctx, s.key), "delete cart snapshot", err)
	}
}

func (s *Store) publish(ctx context.Context, eventType events.Type, subject string) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(ctx, events.Event{
		Type:    eventType,
		CartKey: s.key,
		Payload: subject,
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "event", string(eventType)), "event subscriber failed")
	}
}

func validSnapshot(items []LineItem) bool {
	seen := map[string]struct{}{}
	for _, item := range items {
		id := item.ID.Normalized()
		if id == "" || item.Quantity < 1 {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
