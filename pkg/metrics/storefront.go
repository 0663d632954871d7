package metrics

import (
	"context"

	"github.com/novamart/storefront-backend/pkg/events"
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart and checkout activity.
type StorefrontMetrics struct {
	cartMutations *prometheus.CounterVec
	coupons       *prometheus.CounterVec
	orders        *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart store mutations by operation.",
	}, []string{"op"})
	coupons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_validations_total",
		Help: "Coupon validation attempts by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(cartMutations, coupons, orders)
	return &StorefrontMetrics{
		cartMutations: cartMutations,
		coupons:       coupons,
		orders:        orders,
	}
}

// IncCartMutation increments the mutation counter for the named operation.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCoupon increments the coupon counter for the given outcome.
func (m *StorefrontMetrics) IncCoupon(outcome string) {
	if m == nil || m.coupons == nil {
		return
	}
	m.coupons.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOrder increments the order counter for the given outcome.
func (m *StorefrontMetrics) IncOrder(outcome string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// Subscriber bridges the domain event bus onto the counters.
func (m *StorefrontMetrics) Subscriber() events.Subscriber {
	return events.SubscriberFunc(func(_ context.Context, event events.Event) error {
		switch event.Type {
		case events.TypeItemAdded:
			m.IncCartMutation("add_item")
		case events.TypeItemRemoved:
			m.IncCartMutation("remove_item")
		case events.TypeQuantityUpdated:
			m.IncCartMutation("update_quantity")
		case events.TypeCartCleared:
			m.IncCartMutation("clear")
		case events.TypeCouponApplied:
			m.IncCoupon("applied")
		case events.TypeCouponRejected:
			m.IncCoupon("rejected")
		case events.TypeCouponRemoved:
			m.IncCoupon("removed")
		case events.TypeOrderPlaced:
			m.IncOrder("placed")
		case events.TypeOrderFailed:
			m.IncOrder("failed")
		}
		return nil
	})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
