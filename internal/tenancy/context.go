// Package tenancy holds the per-request view of which organisation a staff member is
// acting in and which of its records they may see.
package tenancy

import (
	"context"
	"fmt"
	"sync"

	"github.com/loan-admin-api/internal/domain"
)

// Filter restricts tenant-scoped reads. The zero value matches nothing.
type Filter struct {
	OrganisationID string `json:"organisation_id,omitempty"`
	Unscoped       bool   `json:"unscoped"`
}

// Empty reports whether the filter denies every record.
func (f Filter) Empty() bool { return !f.Unscoped && f.OrganisationID == "" }

// Allows reports whether a record owned by orgID is visible.
func (f Filter) Allows(orgID string) bool {
	if f.Unscoped {
		return true
	}
	return f.OrganisationID != "" && f.OrganisationID == orgID
}

// Query runs the read appropriate to f: byOrg for a single organisation, all when unscoped.
// An empty filter fails with domain.ErrForbidden and runs neither.
func Query[T any](f Filter, byOrg func(orgID string) ([]T, error), all func() ([]T, error)) ([]T, error) {
	switch {
	case f.Unscoped:
		return all()
	case f.OrganisationID != "":
		return byOrg(f.OrganisationID)
	default:
		return nil, fmt.Errorf("no organisation in scope: %w", domain.ErrForbidden)
	}
}

// Snapshot is a point-in-time copy of a Context.
type Snapshot struct {
	Organisation        *domain.Organisation     `json:"organisation"`
	SubscriptionPlan    *domain.SubscriptionPlan `json:"subscription_plan"`
	IsSubscriptionValid bool                     `json:"is_subscription_valid"`
	Staff               *domain.Staff            `json:"staff"`
	Role                domain.Role              `json:"role"`
	Permissions         []string                 `json:"permissions"`
	ViewAll             bool                     `json:"view_all"`
	Filter              Filter                   `json:"filter"`
}

// Context is one staff member's tenancy state. Safe for concurrent use.
type Context struct {
	mu          sync.RWMutex
	org         *domain.Organisation
	plan        *domain.SubscriptionPlan
	staff       *domain.Staff
	role        domain.Role
	permissions []string
	viewAll     bool
	filter      Filter
}

func New() *Context { return &Context{} }

// SetOrganisation scopes the context to org and turns view-all off.
// A nil org leaves nothing in scope.
func (c *Context) SetOrganisation(org *domain.Organisation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.org = org
	c.viewAll = false
	c.filter = Filter{}
	if org != nil {
		c.filter.OrganisationID = org.OrganisationID
	}
}

func (c *Context) SetSubscriptionPlan(plan *domain.SubscriptionPlan) {
	c.mu.Lock()
	c.plan = plan
	c.mu.Unlock()
}

func (c *Context) SetStaff(s *domain.Staff) {
	c.mu.Lock()
	c.staff = s
	c.mu.Unlock()
}

// SetRole changes the acting role. Moving away from super admin drops view-all.
func (c *Context) SetRole(r domain.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = r
	if !r.IsSuperAdmin() {
		c.viewAll = false
	}
}

func (c *Context) SetPermissions(perms []string) {
	c.mu.Lock()
	c.permissions = append([]string(nil), perms...)
	c.mu.Unlock()
}

// SetSuperAdminViewAll turns cross-organisation visibility on or off.
// Only super admins may turn it on.
func (c *Context) SetSuperAdminViewAll(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on && !c.role.IsSuperAdmin() {
		c.viewAll = false
		return fmt.Errorf("view-all requires %s: %w", domain.RoleSuperAdmin, domain.ErrForbidden)
	}
	c.viewAll = on
	return nil
}

// ToggleSuperAdminViewAll flips view-all and returns the new value.
func (c *Context) ToggleSuperAdminViewAll() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.role.IsSuperAdmin() {
		c.viewAll = false
		return false, fmt.Errorf("view-all requires %s: %w", domain.RoleSuperAdmin, domain.ErrForbidden)
	}
	c.viewAll = !c.viewAll
	return c.viewAll, nil
}

// ActiveFilter is the filter every tenant-scoped read must apply.
func (c *Context) ActiveFilter() Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeFilter()
}

func (c *Context) activeFilter() Filter {
	if c.viewAll && c.role.IsSuperAdmin() {
		return Filter{Unscoped: true}
	}
	return c.filter
}

// Clear resets every field in one step.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.org = nil
	c.plan = nil
	c.staff = nil
	c.role = ""
	c.permissions = nil
	c.viewAll = false
	c.filter = Filter{}
}

func (c *Context) Organisation() *domain.Organisation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.org
}

func (c *Context) SubscriptionPlan() *domain.SubscriptionPlan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan
}

// IsSubscriptionValid reports whether a plan is attached and active.
func (c *Context) IsSubscriptionValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan != nil && c.plan.IsActive
}

func (c *Context) Staff() *domain.Staff {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staff
}

func (c *Context) Role() domain.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

func (c *Context) Permissions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.permissions...)
}

func (c *Context) HasPermission(p string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, have := range c.permissions {
		if have == p {
			return true
		}
	}
	return false
}

func (c *Context) ViewAll() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewAll && c.role.IsSuperAdmin()
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Organisation:        c.org,
		SubscriptionPlan:    c.plan,
		IsSubscriptionValid: c.plan != nil && c.plan.IsActive,
		Staff:               c.staff,
		Role:                c.role,
		Permissions:         append([]string(nil), c.permissions...),
		ViewAll:             c.viewAll && c.role.IsSuperAdmin(),
		Filter:              c.activeFilter(),
	}
}

type ctxKey struct{}

// WithContext attaches tc to ctx.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext returns the tenancy context attached to ctx, or nil.
func FromContext(ctx context.Context) *Context {
	tc, _ := ctx.Value(ctxKey{}).(*Context)
	return tc
}
