package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/loan-admin-api/internal/application/access"
	"github.com/loan-admin-api/internal/domain"
	jwtinfra "github.com/loan-admin-api/internal/infrastructure/jwt"
	"github.com/loan-admin-api/internal/pkg/validate"
	"github.com/loan-admin-api/internal/tenancy"
	"github.com/loan-admin-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login and refresh responses.
type AuthEnvelope struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session,omitempty"`
}

// ListEnvelope wraps collection responses.
type ListEnvelope[T any] struct {
	Data []T `json:"data"`
}

type DecisionEnvelope struct {
	Decision access.Decision `json:"decision"`
}

type VerificationStatusEnvelope struct {
	Verified bool `json:"verified"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, ListEnvelope[T]{Data: items})
}

// httpError maps domain sentinels to status codes. Anything unrecognised is an
// infrastructure failure and is logged, not echoed.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeValid decodes the body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (*jwtinfra.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return claims, ok
}

func tenancyOrUnauthorized(w http.ResponseWriter, r *http.Request) (*tenancy.Context, bool) {
	tc := tenancy.FromContext(r.Context())
	if tc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return tc, true
}
