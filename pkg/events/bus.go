package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Type names a domain event emitted by the cart store or checkout orchestrator.
type Type string

const (
	TypeItemAdded       Type = "cart.item_added"
	TypeItemRemoved     Type = "cart.item_removed"
	TypeQuantityUpdated Type = "cart.quantity_updated"
	TypeCartCleared     Type = "cart.cleared"
	TypeCouponApplied   Type = "cart.coupon_applied"
	TypeCouponRemoved   Type = "cart.coupon_removed"
	TypeCouponRejected  Type = "cart.coupon_rejected"
	TypeOrderPlaced     Type = "checkout.order_placed"
	TypeOrderFailed     Type = "checkout.order_failed"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Type       Type
	CartKey    string
	OccurredAt time.Time
	Payload    any
}

// Subscriber receives every published event. Returned errors are aggregated
// but never propagated back into the publishing mutation.
type Subscriber interface {
	Handle(ctx context.Context, event Event) error
}

// SubscriberFunc adapts a bare function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, event Event) error

func (f SubscriberFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is a synchronous in-process fan-out. The cart store publishes domain
// events here instead of calling UI-facing side channels directly, so
// subscriber failures cannot affect cart state.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber for all future events.
func (b *Bus) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

// Publish delivers the event to every subscriber in registration order and
// returns the aggregated subscriber errors. Callers on the mutation path are
// expected to log the result and move on.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	var errs error
	for _, sub := range subs {
		errs = multierr.Append(errs, safeHandle(ctx, sub, event))
	}
	return errs
}

func safeHandle(ctx context.Context, sub Subscriber, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return sub.Handle(ctx, event)
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("event subscriber panicked: %v", p.value)
}
