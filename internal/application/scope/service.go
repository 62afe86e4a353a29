// Package scope loads a staff member's tenancy context from their session and
// persists the super-admin organisation switch and view-all toggle back onto it.
package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/tenancy"
)

const (
	fieldOrganisationID = "organisation_id"
	fieldViewAll        = "view_all"
)

type Service interface {
	// Resolve builds the tenancy context for sessionID. Missing role, organisation or
	// plan records leave the corresponding field empty; any other store failure is returned.
	Resolve(ctx context.Context, sessionID string) (*tenancy.Context, error)
	SetViewAll(ctx context.Context, tc *tenancy.Context, sessionID string, on bool) error
	SwitchOrganisation(ctx context.Context, tc *tenancy.Context, sessionID, organisationID string) error
}

type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
}

type roleStore interface {
	Get(ctx context.Context, role domain.Role) (*domain.RoleDefinition, error)
}

type organisationStore interface {
	Get(ctx context.Context, organisationID string) (*domain.Organisation, error)
}

type planStore interface {
	Get(ctx context.Context, planType string) (*domain.SubscriptionPlan, error)
}

type service struct {
	sessions      sessionStore
	staff         staffStore
	roles         roleStore
	organisations organisationStore
	plans         planStore
}

type ServiceDeps struct {
	SessionRepo      sessionStore
	StaffRepo        staffStore
	RoleRepo         roleStore
	OrganisationRepo organisationStore
	PlanRepo         planStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		sessions:      deps.SessionRepo,
		staff:         deps.StaffRepo,
		roles:         deps.RoleRepo,
		organisations: deps.OrganisationRepo,
		plans:         deps.PlanRepo,
	}
}

func (s *service) Resolve(ctx context.Context, sessionID string) (*tenancy.Context, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session not found: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session ended: %w", domain.ErrUnauthorized)
	}
	member, err := s.staff.Get(ctx, sess.StaffID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("staff not found: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !member.Enable {
		return nil, fmt.Errorf("staff disabled: %w", domain.ErrUnauthorized)
	}

	tc := tenancy.New()
	tc.SetStaff(member)
	tc.SetRole(member.Role)

	def, err := s.roles.Get(ctx, member.Role)
	switch {
	case err == nil:
		if def.Enable {
			tc.SetPermissions(def.Permissions)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	orgID := sess.OrganisationID
	if orgID == "" {
		orgID = member.OrganisationID
	}
	if err := s.loadOrganisation(ctx, tc, orgID); err != nil {
		return nil, err
	}
	if sess.ViewAll {
		// A session whose staff lost super admin keeps the persisted flag but stays scoped.
		_ = tc.SetSuperAdminViewAll(true)
	}
	return tc, nil
}

func (s *service) loadOrganisation(ctx context.Context, tc *tenancy.Context, orgID string) error {
	if orgID == "" {
		return nil
	}
	org, err := s.organisations.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	tc.SetOrganisation(org)

	plan, err := s.plans.Get(ctx, org.SubscriptionPlanType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	tc.SetSubscriptionPlan(plan)
	return nil
}

func (s *service) SetViewAll(ctx context.Context, tc *tenancy.Context, sessionID string, on bool) error {
	if err := tc.SetSuperAdminViewAll(on); err != nil {
		return err
	}
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{fieldViewAll: on})
}

func (s *service) SwitchOrganisation(ctx context.Context, tc *tenancy.Context, sessionID, organisationID string) error {
	if !tc.Role().IsSuperAdmin() {
		return fmt.Errorf("switching organisation requires %s: %w", domain.RoleSuperAdmin, domain.ErrForbidden)
	}
	org, err := s.organisations.Get(ctx, organisationID)
	if err != nil {
		return err
	}
	var plan *domain.SubscriptionPlan
	if p, err := s.plans.Get(ctx, org.SubscriptionPlanType); err == nil {
		plan = p
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err := s.sessions.Update(ctx, sessionID, map[string]interface{}{
		fieldOrganisationID: org.OrganisationID,
		fieldViewAll:        false,
	}); err != nil {
		return err
	}
	tc.SetOrganisation(org)
	tc.SetSubscriptionPlan(plan)
	return nil
}
