package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loan-admin-api/internal/application/staff"
	"github.com/loan-admin-api/internal/domain"
)

// StaffHandler handles tenant-scoped staff endpoints.
type StaffHandler struct {
	svc staff.Service
}

func NewStaffHandler(svc staff.Service) *StaffHandler { return &StaffHandler{svc: svc} }

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	members, err := h.svc.List(r.Context(), tc.ActiveFilter())
	if err != nil {
		httpError(w, err)
		return
	}
	writeList(w, members)
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	member, err := h.svc.Get(r.Context(), tc.ActiveFilter(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// Create adds a staff member to the caller's active organisation.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req domain.CreateStaffRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.Role.IsSuperAdmin() && !tc.Role().IsSuperAdmin() {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	var orgID string
	if org := tc.Organisation(); org != nil {
		orgID = org.OrganisationID
	}
	member, err := h.svc.Create(r.Context(), orgID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}
