package coupon

import (
	"context"
	"fmt"
	"strings"

	"github.com/novamart/storefront-backend/internal/cart"
	"github.com/novamart/storefront-backend/pkg/commerce"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/events"
	"github.com/novamart/storefront-backend/pkg/logger"
)

type couponValidator interface {
	ValidateCoupon(ctx context.Context, input commerce.CouponValidationInput) (*commerce.CouponResult, error)
}

type cartLoader interface {
	Store(ctx context.Context, key string) (*cart.Store, error)
}

// Service validates a user-entered code against the cart contents before
// committing it to the cart store.
type Service interface {
	ValidateAndApply(ctx context.Context, cartKey, code string) (cart.State, error)
}

type service struct {
	carts     cartLoader
	validator couponValidator
	bus       *events.Bus
	logg      *logger.Logger
}

// NewService builds the coupon service.
func NewService(carts cartLoader, validator couponValidator, bus *events.Bus, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if validator == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	return &service{
		carts:     carts,
		validator: validator,
		bus:       bus,
		logg:      logg,
	}, nil
}

// ValidateAndApply checks the code with the remote validator and applies the
// returned discount. The discount amount is always the server's figure; the
// cart is untouched on any failure.
func (s *service) ValidateAndApply(ctx context.Context, cartKey, code string) (cart.State, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return cart.State{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	store, err := s.carts.Store(ctx, cartKey)
	if err != nil {
		return cart.State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	state := store.State()
	if len(state.Items) == 0 {
		return cart.State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	result, err := s.validator.ValidateCoupon(ctx, commerce.CouponValidationInput{
		Code:         trimmed,
		CartSubtotal: state.Total,
		CategoryIDs:  distinctCategoryIDs(state.Items),
		ProductIDs:   distinctProductIDs(state.Items),
	})
	if err != nil {
		s.publishRejected(ctx, cartKey, trimmed)
		return cart.State{}, err
	}

	return store.ApplyCoupon(ctx, trimmed, result.Discount), nil
}

func (s *service) publishRejected(ctx context.Context, cartKey, code string) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(ctx, events.Event{
		Type:    events.TypeCouponRejected,
		CartKey: cartKey,
		Payload: code,
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "coupon event subscriber failed")
	}
}

func distinctCategoryIDs(items []cart.LineItem) []string {
	return distinct(items, func(item cart.LineItem) string { return item.CategoryID })
}

func distinctProductIDs(items []cart.LineItem) []string {
	return distinct(items, func(item cart.LineItem) string {
		if item.ProductID != "" {
			return item.ProductID
		}
		return item.ID.Normalized()
	})
}

func distinct(items []cart.LineItem, pick func(cart.LineItem) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, item := range items {
		value := strings.TrimSpace(pick(item))
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
