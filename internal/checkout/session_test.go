package checkout

import (
	"testing"

	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

func shippingFixture() ShippingData {
	return ShippingData{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Address:    "1 Analytical Way",
		City:       "London",
		State:      "LDN",
		Country:    "GB",
		PostalCode: "N1 7GU",
	}
}

func TestSessionHappyPath(t *testing.T) {
	session := newSession("cart-1")
	if session.currentStep() != StepShipping {
		t.Fatalf("expected new session to start at shipping, got %s", session.currentStep())
	}

	view, err := session.completeShipping(shippingFixture(), decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != StepPayment {
		t.Fatalf("expected payment step, got %s", view.Step)
	}
	if !view.TaxAmount.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected tax 2, got %s", view.TaxAmount)
	}

	view, err = session.completePayment(PaymentData{MethodCode: "card", CardNumber: "4242424242424242"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != StepReview {
		t.Fatalf("expected review step, got %s", view.Step)
	}

	view, err = session.confirm(OrderSummary{OrderNumber: "ORD-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != StepConfirmation {
		t.Fatalf("expected confirmation step, got %s", view.Step)
	}
	if view.Summary == nil || view.Summary.OrderNumber != "ORD-1" {
		t.Fatalf("expected pinned summary, got %+v", view.Summary)
	}
}

func TestSessionForwardSkipsRejected(t *testing.T) {
	session := newSession("cart-1")

	if _, err := session.completePayment(PaymentData{MethodCode: "card"}); err == nil {
		t.Fatal("expected payment before shipping to be rejected")
	}
	if _, err := session.confirm(OrderSummary{}); err == nil {
		t.Fatal("expected confirm before review to be rejected")
	}

	_, err := session.completePayment(PaymentData{MethodCode: "card"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestSessionBackKeepsCollectedData(t *testing.T) {
	session := newSession("cart-1")
	session.completeShipping(shippingFixture(), decimal.Zero)
	session.completePayment(PaymentData{MethodCode: "card"})

	view, err := session.back()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != StepPayment {
		t.Fatalf("expected review->payment, got %s", view.Step)
	}
	if view.PaymentMethod != "card" {
		t.Fatalf("expected payment method kept, got %q", view.PaymentMethod)
	}

	view, err = session.back()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Step != StepShipping {
		t.Fatalf("expected payment->shipping, got %s", view.Step)
	}
	if view.Shipping == nil || view.Shipping.Email != "ada@example.com" {
		t.Fatalf("expected shipping form kept, got %+v", view.Shipping)
	}

	if _, err := session.back(); err == nil {
		t.Fatal("expected back from shipping to be rejected")
	}
}

func TestSessionConfirmationIsTerminal(t *testing.T) {
	session := newSession("cart-1")
	session.completeShipping(shippingFixture(), decimal.Zero)
	session.completePayment(PaymentData{MethodCode: "card"})
	session.confirm(OrderSummary{OrderNumber: "ORD-1"})

	if _, err := session.back(); err == nil {
		t.Fatal("expected back from confirmation to be rejected")
	}
	if _, err := session.completeShipping(shippingFixture(), decimal.Zero); err == nil {
		t.Fatal("expected shipping after confirmation to be rejected")
	}
}

func TestSessionInFlightGuard(t *testing.T) {
	session := newSession("cart-1")

	if err := session.acquire("place_order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := session.acquire("place_order")
	if err == nil {
		t.Fatal("expected overlapping submission to be rejected")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	// a different action is not blocked
	if err := session.acquire("shipping"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session.release("place_order")
	if err := session.acquire("place_order"); err != nil {
		t.Fatalf("expected acquire after release to succeed, got %v", err)
	}
}

func TestCardLast4(t *testing.T) {
	if got := (PaymentData{CardNumber: "4242424242424242"}).cardLast4(); got != "4242" {
		t.Fatalf("unexpected last4 %q", got)
	}
	if got := (PaymentData{CardNumber: "42"}).cardLast4(); got != "" {
		t.Fatalf("expected empty last4 for short numbers, got %q", got)
	}
	if got := (PaymentData{}).cardLast4(); got != "" {
		t.Fatalf("expected empty last4 for missing card, got %q", got)
	}
}
