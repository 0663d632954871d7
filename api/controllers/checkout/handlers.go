package checkout

import (
	"net/http"

	"github.com/novamart/storefront-backend/api/middleware"
	"github.com/novamart/storefront-backend/api/responses"
	"github.com/novamart/storefront-backend/api/validators"
	checkoutsvc "github.com/novamart/storefront-backend/internal/checkout"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/logger"
)

// Begin starts a checkout session for the caller's cart.
func Begin(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Begin(r.Context(), cartKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// Current returns the active session state.
func Current(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Current(r.Context(), cartKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Abandon discards the active session, if any.
func Abandon(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		svc.Abandon(r.Context(), cartKey)
		responses.WriteSuccess(w, map[string]string{"status": "abandoned"})
	}
}

// Prefill returns profile defaults for the shipping form.
func Prefill(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Prefill(r.Context(), cartKey, validators.BearerToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// SubmitShipping records the shipping form and advances to payment.
func SubmitShipping(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.ShippingData
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SubmitShipping(r.Context(), cartKey, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PaymentMethods lists the methods available for the shipping destination.
func PaymentMethods(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.PaymentMethods(r.Context(), cartKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

// SubmitPayment records the chosen payment method and advances to review.
func SubmitPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.PaymentData
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SubmitPayment(r.Context(), cartKey, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Back navigates one step towards shipping.
func Back(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Back(r.Context(), cartKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PlaceOrder submits the order and, on success, returns the confirmation view.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartKey, err := requireCartKey(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.PlaceOrder(r.Context(), cartKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func requireCartKey(r *http.Request, svc checkoutsvc.Service) (string, error) {
	if svc == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable")
	}
	cartKey := middleware.CartKeyFromContext(r.Context())
	if cartKey == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart key is required")
	}
	return cartKey, nil
}
