package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novamart/storefront-backend/api/middleware"
	"github.com/novamart/storefront-backend/api/responses"
	"github.com/novamart/storefront-backend/api/validators"
	cartsvc "github.com/novamart/storefront-backend/internal/cart"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/logger"
)

type cartProvider interface {
	Store(ctx context.Context, key string) (*cartsvc.Store, error)
}

type couponApplier interface {
	ValidateAndApply(ctx context.Context, cartKey, code string) (cartsvc.State, error)
}

// Fetch returns the current cart state.
func Fetch(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFromRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.State())
	}
}

// AddItem adds an offer to the cart or bumps its quantity when present.
func AddItem(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFromRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.AddItem(r.Context(), payload.toAddInput()))
	}
}

// RemoveItem deletes the line for the offer id in the path.
func RemoveItem(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFromRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID := cartsvc.OfferID(chi.URLParam(r, "offerId"))
		if offerID.Normalized() == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required"))
			return
		}

		responses.WriteSuccess(w, store.RemoveItem(r.Context(), offerID))
	}
}

// UpdateQuantity sets the quantity for the offer id in the path.
func UpdateQuantity(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFromRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID := cartsvc.OfferID(chi.URLParam(r, "offerId"))
		if offerID.Normalized() == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required"))
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, store.UpdateQuantity(r.Context(), offerID, payload.Quantity))
	}
}

// Clear empties the cart, dropping any applied coupon with it.
func Clear(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFromRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Clear(r.Context()))
	}
}

// ApplyCoupon validates the submitted code remotely before recording it.
func ApplyCoupon(coupons couponApplier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coupons == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		cartKey := middleware.CartKeyFromContext(r.Context())
		if cartKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart key is required"))
			return
		}

		var payload ApplyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := coupons.ValidateAndApply(r.Context(), cartKey, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// RemoveCoupon unsets the applied coupon without touching the items.
func RemoveCoupon(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFromRequest(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.RemoveCoupon(r.Context()))
	}
}

func storeFromRequest(r *http.Request, carts cartProvider) (*cartsvc.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	cartKey := middleware.CartKeyFromContext(r.Context())
	if cartKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	store, err := carts.Store(r.Context(), cartKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return store, nil
}
