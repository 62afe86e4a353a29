package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/tenancy"
)

type tenancyResolver interface {
	Resolve(ctx context.Context, sessionID string) (*tenancy.Context, error)
}

// Tenancy loads the caller's tenancy context from their session and attaches it to the request.
// A resolver failure stops the request with 503 so no handler ever runs unscoped.
func Tenancy(resolver tenancyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			tc, err := resolver.Resolve(r.Context(), claims.SessionID)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					writeJSONError(w, http.StatusUnauthorized, "session is no longer valid")
					return
				}
				slog.Error("tenancy resolution failed", "session_id", claims.SessionID, "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "tenancy unavailable")
				return
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithContext(r.Context(), tc)))
		})
	}
}
