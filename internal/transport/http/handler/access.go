package handler

import (
	"net/http"
	"strings"

	"github.com/loan-admin-api/internal/application/access"
	"github.com/loan-admin-api/internal/domain"
)

// AccessHandler answers guard queries for clients that hide screens the caller cannot use.
type AccessHandler struct{}

func NewAccessHandler() *AccessHandler { return &AccessHandler{} }

// Decision evaluates ?features=a,b&mode=all|any&roles=x,y against the caller's tenancy.
// When both features and roles are given, both must allow.
func (h *AccessHandler) Decision(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenancyOrUnauthorized(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	var features []domain.FeatureKey
	for _, raw := range splitList(q.Get("features")) {
		f := domain.FeatureKey(raw)
		if !f.Valid() {
			writeError(w, http.StatusBadRequest, "unknown feature "+raw)
			return
		}
		features = append(features, f)
	}
	var roles []domain.Role
	for _, raw := range splitList(q.Get("roles")) {
		role := domain.Role(raw)
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role "+raw)
			return
		}
		roles = append(roles, role)
	}
	requireAll := true
	switch q.Get("mode") {
	case "", "all":
	case "any":
		requireAll = false
	default:
		writeError(w, http.StatusBadRequest, "mode must be all or any")
		return
	}

	engine := access.NewEngine(tc)
	decision := engine.Decide(features, requireAll)
	if decision.Allowed() && len(roles) > 0 {
		decision = engine.DecideRole(roles...)
	}
	writeJSON(w, http.StatusOK, DecisionEnvelope{Decision: decision})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
