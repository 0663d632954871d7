package checkout

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/novamart/storefront-backend/internal/cart"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Step identifies a checkout wizard stage. Forward movement is strictly
// ordered; backward navigation is allowed from Payment and Review only.
type Step string

const (
	StepShipping     Step = "shipping"
	StepPayment      Step = "payment"
	StepReview       Step = "review"
	StepConfirmation Step = "confirmation"
)

// ShippingData is the shipping form as submitted. It survives backward
// navigation so the form can be re-edited.
type ShippingData struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	SellerID   string `json:"seller_id,omitempty"`
}

// PaymentData records the chosen method. Card fields are held only until
// order submission and never echoed back beyond the last four digits.
type PaymentData struct {
	MethodCode string `json:"method_code" validate:"required"`
	CardNumber string `json:"card_number,omitempty"`
	CardName   string `json:"card_name,omitempty"`
	CardExpiry string `json:"card_expiry,omitempty"`
	CardCVC    string `json:"card_cvc,omitempty"`
}

func (p PaymentData) cardLast4() string {
	digits := strings.TrimSpace(p.CardNumber)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// OrderSummary is the immutable snapshot captured at the moment the order was
// accepted. The live cart is cleared immediately afterwards, so the
// confirmation step renders exclusively from this.
type OrderSummary struct {
	OrderNumber   string          `json:"order_number"`
	Items         []cart.LineItem `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
	CouponCode    string          `json:"coupon_code,omitempty"`
	Shipping      ShippingData    `json:"shipping"`
	PaymentMethod string          `json:"payment_method"`
	CardLast4     string          `json:"card_last4,omitempty"`
	PlacedAt      time.Time       `json:"placed_at"`
}

// Session is one checkout attempt. All field access goes through the mutex;
// the in-flight set makes the no-double-submit guarantee structural instead
// of relying on the UI disabling its buttons.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	cartKey   string
	step      Step
	shipping  *ShippingData
	payment   *PaymentData
	taxAmount decimal.Decimal
	summary   *OrderSummary

	inFlight map[string]struct{}
}

func newSession(cartKey string) *Session {
	return &Session{
		id:        uuid.New(),
		cartKey:   cartKey,
		step:      StepShipping,
		taxAmount: decimal.Zero,
		inFlight:  map[string]struct{}{},
	}
}

// View is the serializable read model of a session.
type View struct {
	ID            uuid.UUID     `json:"id"`
	Step          Step          `json:"step"`
	Shipping      *ShippingData `json:"shipping,omitempty"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Summary       *OrderSummary `json:"order_summary,omitempty"`
}

func (s *Session) view() View {
	v := View{
		ID:        s.id,
		Step:      s.step,
		TaxAmount: s.taxAmount,
	}
	if s.shipping != nil {
		shipping := *s.shipping
		v.Shipping = &shipping
	}
	if s.payment != nil {
		v.PaymentMethod = s.payment.MethodCode
	}
	if s.summary != nil {
		summary := *s.summary
		v.Summary = &summary
	}
	return v
}

// View returns a consistent snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// acquire marks an action in flight, rejecting overlapping submissions of the
// same action.
func (s *Session) acquire(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[action]; busy {
		return pkgerrors.New(pkgerrors.CodeConflict, "request already in progress")
	}
	s.inFlight[action] = struct{}{}
	return nil
}

func (s *Session) release(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, action)
}

// ensureStep checks the current step, taking the lock.
func (s *Session) ensureStep(want Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireStep(want)
}

func (s *Session) requireStep(want Step) error {
	if s.step != want {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not on the "+string(want)+" step").
			WithDetails(map[string]any{"step": string(s.step)})
	}
	return nil
}

// completeShipping records the form and the quoted tax, then advances.
func (s *Session) completeShipping(data ShippingData, tax decimal.Decimal) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepShipping); err != nil {
		return View{}, err
	}
	shipping := data
	s.shipping = &shipping
	s.taxAmount = tax
	s.step = StepPayment
	return s.view(), nil
}

// completePayment records the method and advances to review.
func (s *Session) completePayment(data PaymentData) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepPayment); err != nil {
		return View{}, err
	}
	payment := data
	s.payment = &payment
	s.step = StepReview
	return s.view(), nil
}

// back moves one step towards shipping. Collected data is kept so the forms
// stay editable. Confirmation is terminal.
func (s *Session) back() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.step {
	case StepPayment:
		s.step = StepShipping
	case StepReview:
		s.step = StepPayment
	default:
		return View{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot navigate back from the "+string(s.step)+" step")
	}
	return s.view(), nil
}

// confirm is the sole irreversible transition: it pins the summary and moves
// to the terminal step.
func (s *Session) confirm(summary OrderSummary) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireStep(StepReview); err != nil {
		return View{}, err
	}
	pinned := summary
	s.summary = &pinned
	s.step = StepConfirmation
	return s.view(), nil
}

func (s *Session) shippingData() (ShippingData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shipping == nil {
		return ShippingData{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping step not completed")
	}
	return *s.shipping, nil
}

func (s *Session) paymentData() (PaymentData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return PaymentData{}, pkgerrors.New(pkgerrors.CodeStateConflict, "payment step not completed")
	}
	return *s.payment, nil
}

func (s *Session) currentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) tax() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taxAmount
}
