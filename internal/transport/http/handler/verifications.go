package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loan-admin-api/internal/application/confirmation"
	"github.com/loan-admin-api/internal/domain"
)

// msgInvalidCode is the single response for every negative validation outcome,
// so callers cannot tell unknown, expired and already-used codes apart.
const msgInvalidCode = "invalid or expired code"

// VerificationHandler handles email and phone confirmation endpoints.
type VerificationHandler struct {
	svc confirmation.Service
}

func NewVerificationHandler(svc confirmation.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type validateCodeRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

type validateTokenRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Token     string `json:"token" validate:"required,hexadecimal,len=64"`
}

func channelParam(w http.ResponseWriter, r *http.Request) (domain.Channel, bool) {
	c := domain.Channel(chi.URLParam(r, "channel"))
	if !c.Valid() {
		writeError(w, http.StatusBadRequest, "channel must be email or phone")
		return "", false
	}
	return c, true
}

func (h *VerificationHandler) Request(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := h.svc.Request(r.Context(), tc.Staff(), channel); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "verification sent"})
}

func (h *VerificationHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req validateCodeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	verified, err := h.svc.ConfirmCode(r.Context(), tc.Staff(), channel, req.Code)
	h.respond(w, verified, err)
}

func (h *VerificationHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	var req validateTokenRequest
	if !decodeValid(w, r, &req) {
		return
	}
	verified, err := h.svc.ConfirmToken(r.Context(), req.Recipient, channel, req.Token)
	h.respond(w, verified, err)
}

func (h *VerificationHandler) respond(w http.ResponseWriter, verified bool, err error) {
	if err != nil {
		httpError(w, err)
		return
	}
	if !verified {
		writeError(w, http.StatusUnauthorized, msgInvalidCode)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verified"})
}

func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	verified, err := h.svc.Status(r.Context(), tc.Staff(), channel)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, VerificationStatusEnvelope{Verified: verified})
}
