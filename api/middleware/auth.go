package middleware

import (
	"context"
	"net/http"

	"github.com/novamart/storefront-backend/api/responses"
	"github.com/novamart/storefront-backend/api/validators"
	pkgAuth "github.com/novamart/storefront-backend/pkg/auth"
	"github.com/novamart/storefront-backend/pkg/config"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
	"github.com/novamart/storefront-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
// Checkout routes sit behind this; anonymous requests never reach them.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := validators.BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := seedClaims(r.Context(), logg, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth parses a bearer token when one is present but lets anonymous
// requests through. Cart routes use it: a guest cart works without an
// account, and an authenticated request gets its user claims in context.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := validators.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := seedClaims(r.Context(), logg, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func seedClaims(ctx context.Context, logg *logger.Logger, claims *pkgAuth.AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID.String())
	if claims.Email != "" {
		ctx = context.WithValue(ctx, ctxEmail, claims.Email)
	}
	if logg != nil {
		ctx = logg.WithUserID(ctx, claims.UserID.String())
	}
	return ctx
}
