package organisation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/pkg/id"
	"github.com/loan-admin-api/internal/tenancy"
)

type Service interface {
	List(ctx context.Context, f tenancy.Filter) ([]domain.Organisation, error)
	Get(ctx context.Context, f tenancy.Filter, organisationID string) (*domain.Organisation, error)
	Create(ctx context.Context, input domain.OrganisationInput) (*domain.Organisation, error)
}

type organisationStore interface {
	Put(ctx context.Context, o *domain.Organisation) error
	Get(ctx context.Context, organisationID string) (*domain.Organisation, error)
	Scan(ctx context.Context) ([]domain.Organisation, error)
}

type planStore interface {
	Get(ctx context.Context, planType string) (*domain.SubscriptionPlan, error)
}

type service struct {
	repo  organisationStore
	plans planStore
}

type ServiceDeps struct {
	OrganisationRepo organisationStore
	PlanRepo         planStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.OrganisationRepo, plans: deps.PlanRepo}
}

func (s *service) List(ctx context.Context, f tenancy.Filter) ([]domain.Organisation, error) {
	return tenancy.Query(f,
		func(orgID string) ([]domain.Organisation, error) {
			o, err := s.repo.Get(ctx, orgID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return []domain.Organisation{*o}, nil
		},
		func() ([]domain.Organisation, error) { return s.repo.Scan(ctx) },
	)
}

func (s *service) Get(ctx context.Context, f tenancy.Filter, organisationID string) (*domain.Organisation, error) {
	if !f.Allows(organisationID) {
		return nil, fmt.Errorf("organisation not found: %w", domain.ErrNotFound)
	}
	return s.repo.Get(ctx, organisationID)
}

func (s *service) Create(ctx context.Context, input domain.OrganisationInput) (*domain.Organisation, error) {
	if _, err := s.plans.Get(ctx, input.SubscriptionPlanType); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown subscription plan %q: %w", input.SubscriptionPlanType, domain.ErrBadRequest)
		}
		return nil, err
	}
	now := time.Now().UTC()
	o := &domain.Organisation{
		OrganisationID:       id.New(),
		Name:                 input.Name,
		SubscriptionPlanType: input.SubscriptionPlanType,
		Enable:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
