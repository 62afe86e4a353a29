package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loan-admin-api/internal/application/organisation"
	"github.com/loan-admin-api/internal/domain"
)

// OrganisationHandler handles organisation endpoints.
type OrganisationHandler struct {
	svc organisation.Service
}

func NewOrganisationHandler(svc organisation.Service) *OrganisationHandler {
	return &OrganisationHandler{svc: svc}
}

func (h *OrganisationHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	orgs, err := h.svc.List(r.Context(), tc.ActiveFilter())
	if err != nil {
		httpError(w, err)
		return
	}
	writeList(w, orgs)
}

func (h *OrganisationHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	org, err := h.svc.Get(r.Context(), tc.ActiveFilter(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrganisationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.OrganisationInput
	if !decodeValid(w, r, &input) {
		return
	}
	org, err := h.svc.Create(r.Context(), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}
