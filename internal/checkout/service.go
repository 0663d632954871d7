package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/novamart/storefront-backend/internal/cart"
	"github.com/novamart/storefront-backend/pkg/commerce"
	"github.com/novamart/storefront-backend/pkg/config"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/events"
	"github.com/novamart/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type commerceGateway interface {
	CalculateTax(ctx context.Context, input commerce.TaxInput) (*commerce.TaxResult, error)
	GetPaymentMethods(ctx context.Context, destinationCountry string) ([]commerce.PaymentMethod, error)
	CreateOrder(ctx context.Context, input commerce.OrderInput) (*commerce.OrderResult, error)
	GetProfile(ctx context.Context, token string) (*commerce.Profile, error)
}

type cartLoader interface {
	Store(ctx context.Context, key string) (*cart.Store, error)
}

// Service drives the staged purchase flow: Shipping -> Payment -> Review ->
// Confirmation, with one irreversible commit point at order placement.
type Service interface {
	Begin(ctx context.Context, cartKey string) (View, error)
	Current(ctx context.Context, cartKey string) (View, error)
	Abandon(ctx context.Context, cartKey string)
	Prefill(ctx context.Context, cartKey, token string) (*commerce.Profile, error)
	SubmitShipping(ctx context.Context, cartKey string, data ShippingData) (View, error)
	PaymentMethods(ctx context.Context, cartKey string) ([]commerce.PaymentMethod, error)
	SubmitPayment(ctx context.Context, cartKey string, data PaymentData) (View, error)
	Back(ctx context.Context, cartKey string) (View, error)
	PlaceOrder(ctx context.Context, cartKey string) (View, error)
}

type service struct {
	mu       sync.Mutex
	sessions map[string]*Session

	carts   cartLoader
	gateway commerceGateway

	shippingFee    decimal.Decimal
	freeShippingAt decimal.Decimal

	bus  *events.Bus
	logg *logger.Logger
}

// NewService builds the checkout orchestrator.
func NewService(carts cartLoader, gateway commerceGateway, cfg config.CheckoutConfig, bus *events.Bus, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("commerce gateway required")
	}
	return &service{
		sessions:       map[string]*Session{},
		carts:          carts,
		gateway:        gateway,
		shippingFee:    cfg.ShippingFeeAmount(),
		freeShippingAt: cfg.FreeShippingAt(),
		bus:            bus,
		logg:           logg,
	}, nil
}

// Begin starts a fresh checkout attempt, replacing any abandoned one. The
// cart must not be empty; the auth guard lives in the HTTP middleware.
func (s *service) Begin(ctx context.Context, cartKey string) (View, error) {
	if _, err := s.nonEmptyCart(ctx, cartKey); err != nil {
		return View{}, err
	}

	session := newSession(cartKey)
	s.mu.Lock()
	s.sessions[cartKey] = session
	s.mu.Unlock()

	return session.View(), nil
}

// Current returns the active session for the cart key.
func (s *service) Current(ctx context.Context, cartKey string) (View, error) {
	session, err := s.session(cartKey)
	if err != nil {
		return View{}, err
	}
	if session.currentStep() != StepConfirmation {
		if _, err := s.nonEmptyCart(ctx, cartKey); err != nil {
			return View{}, err
		}
	}
	return session.View(), nil
}

// Abandon destroys the session for the cart key, if any.
func (s *service) Abandon(_ context.Context, cartKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cartKey)
}

// Prefill loads profile defaults for the shipping form. Best effort: a
// failing profile lookup yields an empty prefill, never an error.
func (s *service) Prefill(ctx context.Context, cartKey, token string) (*commerce.Profile, error) {
	if _, err := s.session(cartKey); err != nil {
		return nil, err
	}
	profile, err := s.gateway.GetProfile(ctx, token)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCartKey(ctx, cartKey), "profile prefill unavailable")
		}
		return &commerce.Profile{}, nil
	}
	return profile, nil
}

// SubmitShipping validates the destination, quotes tax, and advances to the
// payment step. A failed tax call is non-fatal: the quote defaults to zero
// and checkout continues.
func (s *service) SubmitShipping(ctx context.Context, cartKey string, data ShippingData) (View, error) {
	session, err := s.session(cartKey)
	if err != nil {
		return View{}, err
	}
	state, err := s.nonEmptyCart(ctx, cartKey)
	if err != nil {
		return View{}, err
	}
	if err := session.acquire("shipping"); err != nil {
		return View{}, err
	}
	defer session.release("shipping")

	tax := decimal.Zero
	quote, err := s.gateway.CalculateTax(ctx, commerce.TaxInput{
		Subtotal: state.Total,
		Country:  data.Country,
		State:    data.State,
		City:     data.City,
		SellerID: data.SellerID,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithCartKey(ctx, cartKey), "tax quote failed, continuing with zero tax")
		}
	} else {
		tax = quote.TaxTotal
	}

	return session.completeShipping(data, tax)
}

// PaymentMethods lists methods for the shipping destination. Failures are
// surfaced: an empty list blocks progression visibly, never silently.
func (s *service) PaymentMethods(ctx context.Context, cartKey string) ([]commerce.PaymentMethod, error) {
	session, err := s.session(cartKey)
	if err != nil {
		return nil, err
	}
	shipping, err := session.shippingData()
	if err != nil {
		return nil, err
	}
	methods, err := s.gateway.GetPaymentMethods(ctx, shipping.Country)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment methods")
	}
	return methods, nil
}

// SubmitPayment records the chosen method and advances to review.
func (s *service) SubmitPayment(ctx context.Context, cartKey string, data PaymentData) (View, error) {
	session, err := s.session(cartKey)
	if err != nil {
		return View{}, err
	}
	if _, err := s.nonEmptyCart(ctx, cartKey); err != nil {
		return View{}, err
	}
	if err := session.acquire("payment"); err != nil {
		return View{}, err
	}
	defer session.release("payment")

	if strings.TrimSpace(data.MethodCode) == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	return session.completePayment(data)
}

// Back navigates one step towards shipping, keeping collected data.
func (s *service) Back(_ context.Context, cartKey string) (View, error) {
	session, err := s.session(cartKey)
	if err != nil {
		return View{}, err
	}
	return session.back()
}

// PlaceOrder is the irreversible commit: it captures the summary from the
// live cart, submits the order, and only on success clears the cart and
// moves to confirmation. On failure the session stays on review and the cart
// is untouched so the user can retry.
func (s *service) PlaceOrder(ctx context.Context, cartKey string) (View, error) {
	session, err := s.session(cartKey)
	if err != nil {
		return View{}, err
	}
	state, err := s.nonEmptyCart(ctx, cartKey)
	if err != nil {
		return View{}, err
	}
	if err := session.ensureStep(StepReview); err != nil {
		return View{}, err
	}
	if err := session.acquire("place_order"); err != nil {
		return View{}, err
	}
	defer session.release("place_order")

	shipping, err := session.shippingData()
	if err != nil {
		return View{}, err
	}
	payment, err := session.paymentData()
	if err != nil {
		return View{}, err
	}

	tax := session.tax()
	shippingFee := s.shippingFeeFor(state.Total)
	total := state.Total.Sub(state.Discount).Add(shippingFee).Add(tax)

	result, err := s.gateway.CreateOrder(ctx, buildOrderInput(state, shipping, payment))
	if err != nil {
		s.publish(ctx, events.TypeOrderFailed, cartKey)
		return View{}, err
	}

	summary := OrderSummary{
		OrderNumber:   result.OrderNumber,
		Items:         state.Items,
		Subtotal:      state.Total,
		Discount:      state.Discount,
		ShippingFee:   shippingFee,
		TaxAmount:     tax,
		Total:         total,
		CouponCode:    state.CouponCode,
		Shipping:      shipping,
		PaymentMethod: payment.MethodCode,
		CardLast4:     payment.cardLast4(),
		PlacedAt:      time.Now().UTC(),
	}

	view, err := session.confirm(summary)
	if err != nil {
		return View{}, err
	}

	store, err := s.carts.Store(ctx, cartKey)
	if err == nil {
		store.Clear(ctx)
	} else if s.logg != nil {
		s.logg.Error(s.logg.WithCartKey(ctx, cartKey), "clear cart after order", err)
	}

	s.publish(ctx, events.TypeOrderPlaced, result.OrderNumber)
	return view, nil
}

// buildOrderInput maps the cart snapshot onto the order payload. Each line is
// submitted with quantity 1 regardless of the stored quantity, matching the
// upstream storefront's order contract.
func buildOrderInput(state cart.State, shipping ShippingData, payment PaymentData) commerce.OrderInput {
	lines := make([]commerce.OrderLine, 0, len(state.Items))
	for _, item := range state.Items {
		lines = append(lines, commerce.OrderLine{
			OfferID:  item.ID.Normalized(),
			Quantity: 1,
		})
	}
	return commerce.OrderInput{
		Items: lines,
		Billing: commerce.Billing{
			FirstName:  shipping.FirstName,
			LastName:   shipping.LastName,
			Email:      shipping.Email,
			Phone:      shipping.Phone,
			Address:    shipping.Address,
			City:       shipping.City,
			State:      shipping.State,
			Country:    shipping.Country,
			PostalCode: shipping.PostalCode,
		},
		PaymentMethodCode: payment.MethodCode,
		CouponCode:        state.CouponCode,
	}
}

func (s *service) shippingFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(s.freeShippingAt) {
		return decimal.Zero
	}
	return s.shippingFee
}

func (s *service) session(cartKey string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[strings.TrimSpace(cartKey)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active checkout session")
	}
	return session, nil
}

// nonEmptyCart enforces the empty-cart guard on every step before
// confirmation; the UI turns the state conflict into a cart redirect.
func (s *service) nonEmptyCart(ctx context.Context, cartKey string) (cart.State, error) {
	store, err := s.carts.Store(ctx, cartKey)
	if err != nil {
		return cart.State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	state := store.State()
	if len(state.Items) == 0 {
		return cart.State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	return state, nil
}

func (s *service) publish(ctx context.Context, eventType events.Type, subject string) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(ctx, events.Event{
		Type:    eventType,
		Payload: subject,
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "checkout event subscriber failed")
	}
}
