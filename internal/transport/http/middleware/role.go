package middleware

import (
	"net/http"

	"github.com/loan-admin-api/internal/application/access"
	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/tenancy"
)

// RequireRole allows the request only when the caller's resolved role is one of allowedRoles.
// It must run after Tenancy.
func RequireRole(allowedRoles ...domain.Role) func(http.Handler) http.Handler {
	return guard("access denied", func(e *access.Engine) access.Decision {
		return e.DecideRole(allowedRoles...)
	})
}

// RequireFeatures allows the request only when the active plan includes every feature.
func RequireFeatures(features ...domain.FeatureKey) func(http.Handler) http.Handler {
	return guard("feature not available", func(e *access.Engine) access.Decision {
		return e.Decide(features, true)
	})
}

// RequireAnyFeature allows the request when the active plan includes at least one feature.
func RequireAnyFeature(features ...domain.FeatureKey) func(http.Handler) http.Handler {
	return guard("feature not available", func(e *access.Engine) access.Decision {
		return e.Decide(features, false)
	})
}

func guard(denied string, decide func(*access.Engine) access.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := tenancy.FromContext(r.Context())
			if tc == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !decide(access.NewEngine(tc)).Allowed() {
				writeJSONError(w, http.StatusForbidden, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
