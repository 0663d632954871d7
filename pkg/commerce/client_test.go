package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/novamart/storefront-backend/pkg/config"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.CommerceConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client, server
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.CommerceConfig{}); err == nil {
		t.Fatal("expected missing base url to fail")
	}
}

func TestValidateCouponSendsCartShape(t *testing.T) {
	var got CouponValidationInput
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coupons/validate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Fatalf("expected api key header, got %q", r.Header.Get("X-Api-Key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(CouponResult{Discount: decimal.NewFromInt(5)})
	}))

	result, err := client.ValidateCoupon(context.Background(), CouponValidationInput{
		Code:         "SAVE5",
		CartSubtotal: decimal.NewFromInt(60),
		CategoryIDs:  []string{"cat-1"},
		ProductIDs:   []string{"prod-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Discount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected discount %s", result.Discount)
	}
	if got.Code != "SAVE5" || len(got.CategoryIDs) != 1 || len(got.ProductIDs) != 1 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestServerErrorMessageSurfacedVerbatim(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "coupon has expired"},
		})
	}))

	_, err := client.ValidateCoupon(context.Background(), CouponValidationInput{Code: "OLD"})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for 4xx, got %v", err)
	}
	if typed.Message() != "coupon has expired" {
		t.Fatalf("expected server message verbatim, got %q", typed.Message())
	}
}

func TestFlatMessageEnvelopeAlsoAccepted(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad request shape"})
	}))

	_, err := client.CalculateTax(context.Background(), TaxInput{Country: "GB"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "bad request shape" {
		t.Fatalf("expected flat message envelope surfaced, got %v", err)
	}
}

func TestServerFailureIsDependencyError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.CreateOrder(context.Background(), OrderInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR for 5xx, got %v", err)
	}
}

func TestUnreachableServerIsDependencyError(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.CalculateTax(context.Background(), TaxInput{Country: "GB"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR for network failure, got %v", err)
	}
}

func TestGetPaymentMethodsQueriesCountry(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("country"); got != "GB" {
			t.Fatalf("expected country query param, got %q", got)
		}
		json.NewEncoder(w).Encode([]PaymentMethod{{Code: "card", Name: "Card"}})
	}))

	methods, err := client.GetPaymentMethods(context.Background(), "GB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(methods) != 1 || methods[0].Code != "card" {
		t.Fatalf("unexpected methods %+v", methods)
	}

	if _, err := client.GetPaymentMethods(context.Background(), "  "); err == nil {
		t.Fatal("expected empty country to be rejected")
	}
}

func TestGetProfileSendsBearerToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Fatalf("expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(Profile{FirstName: "Ada"})
	}))

	profile, err := client.GetProfile(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.FirstName != "Ada" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if _, err := client.GetProfile(context.Background(), ""); err == nil {
		t.Fatal("expected missing token to be rejected")
	}
}
