package middleware

import (
	"net/http"
	"strings"

	"github.com/novamart/storefront-backend/api/responses"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/logger"
)

const cartKeyHeader = "X-Cart-Key"

// CartContext resolves the durable cart key for the request: the
// authenticated user id when present, otherwise the client-held key from the
// X-Cart-Key header. Guests without a key get a validation error; the client
// is expected to mint one and keep sending it.
func CartContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartKey := UserIDFromContext(r.Context())
			if cartKey == "" {
				cartKey = strings.TrimSpace(r.Header.Get(cartKeyHeader))
			}
			if cartKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart key is required"))
				return
			}

			ctx := WithCartKey(r.Context(), cartKey)
			if logg != nil {
				ctx = logg.WithCartKey(ctx, cartKey)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
