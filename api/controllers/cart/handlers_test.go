package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/novamart/storefront-backend/api/middleware"
	cartsvc "github.com/novamart/storefront-backend/internal/cart"
	"github.com/novamart/storefront-backend/internal/cart/snapshot"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/events"
)

type stubCouponApplier struct {
	state cartsvc.State
	err   error
}

func (s stubCouponApplier) ValidateAndApply(_ context.Context, _, _ string) (cartsvc.State, error) {
	return s.state, s.err
}

func newTestManager(t *testing.T) *cartsvc.Manager {
	t.Helper()
	manager, err := cartsvc.NewManager(snapshot.NewMemoryStore(), events.NewBus(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return manager
}

func withCartKey(req *http.Request, key string) *http.Request {
	return req.WithContext(middleware.WithCartKey(req.Context(), key))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestFetchSuccess(t *testing.T) {
	manager := newTestManager(t)
	handler := Fetch(manager, nil)

	req := withCartKey(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "cart-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.State `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ItemCount != 0 || len(envelope.Data.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", envelope.Data)
	}
}

func TestFetchMissingCartKey(t *testing.T) {
	handler := Fetch(newTestManager(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddItemRejectsMissingTitle(t *testing.T) {
	handler := AddItem(newTestManager(t), nil)

	body := strings.NewReader(`{"id":"42","price":"9.99"}`)
	req := withCartKey(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), "cart-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %q", envelope.Error.Code)
	}
}

func TestAddItemThenUpdateQuantityToZeroRemoves(t *testing.T) {
	manager := newTestManager(t)

	add := AddItem(manager, nil)
	body := strings.NewReader(`{"id":"42","title":"Widget","price":"9.99"}`)
	req := withCartKey(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), "cart-1")
	resp := httptest.NewRecorder()
	add.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	update := UpdateQuantity(manager, nil)
	req = withCartKey(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/42", strings.NewReader(`{"quantity":0}`)), "cart-1")
	req = withURLParam(req, "offerId", "42")
	resp = httptest.NewRecorder()
	update.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data cartsvc.State `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 0 {
		t.Fatalf("expected zero quantity to remove the line, got %+v", envelope.Data.Items)
	}
}

func TestApplyCouponConflictMapsTo422(t *testing.T) {
	applier := stubCouponApplier{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")}
	handler := ApplyCoupon(applier, nil)

	body := strings.NewReader(`{"code":"SAVE5"}`)
	req := withCartKey(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", body), "cart-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "cart is empty" {
		t.Fatalf("expected the guard message, got %q", envelope.Error.Message)
	}
}
