package handler

import (
	"net/http"

	"github.com/loan-admin-api/internal/application/scope"
)

// TenancyHandler exposes the caller's tenancy snapshot and the super-admin scope controls.
type TenancyHandler struct {
	svc scope.Service
}

func NewTenancyHandler(svc scope.Service) *TenancyHandler {
	return &TenancyHandler{svc: svc}
}

type viewAllRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type switchOrganisationRequest struct {
	OrganisationID string `json:"organisation_id" validate:"required"`
}

func (h *TenancyHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tc.Snapshot())
}

func (h *TenancyHandler) SetViewAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req viewAllRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.SetViewAll(r.Context(), tc, claims.SessionID, *req.Enabled); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tc.Snapshot())
}

func (h *TenancyHandler) SwitchOrganisation(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req switchOrganisationRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.svc.SwitchOrganisation(r.Context(), tc, claims.SessionID, req.OrganisationID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tc.Snapshot())
}
