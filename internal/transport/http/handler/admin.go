package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/loan-admin-api/internal/application/plan"
	"github.com/loan-admin-api/internal/application/role"
	"github.com/loan-admin-api/internal/domain"
)

// PlanHandler manages subscription plans. Super admin only.
type PlanHandler struct {
	svc plan.Service
}

func NewPlanHandler(svc plan.Service) *PlanHandler { return &PlanHandler{svc: svc} }

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeList(w, plans)
}

func (h *PlanHandler) Put(w http.ResponseWriter, r *http.Request) {
	var input domain.SubscriptionPlanInput
	if !decodeValid(w, r, &input) {
		return
	}
	p, err := h.svc.Put(r.Context(), chi.URLParam(r, "type"), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RoleHandler manages role permission sets. Super admin only.
type RoleHandler struct {
	svc role.Service
}

func NewRoleHandler(svc role.Service) *RoleHandler { return &RoleHandler{svc: svc} }

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeList(w, defs)
}

func (h *RoleHandler) Put(w http.ResponseWriter, r *http.Request) {
	var input domain.RoleInput
	if !decodeValid(w, r, &input) {
		return
	}
	def, err := h.svc.Put(r.Context(), domain.Role(chi.URLParam(r, "role")), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}
