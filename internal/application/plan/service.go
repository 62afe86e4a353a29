package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/loan-admin-api/internal/domain"
)

type Service interface {
	List(ctx context.Context) ([]domain.SubscriptionPlan, error)
	// Put creates or replaces the plan keyed by planType.
	Put(ctx context.Context, planType string, input domain.SubscriptionPlanInput) (*domain.SubscriptionPlan, error)
}

type planStore interface {
	Put(ctx context.Context, p *domain.SubscriptionPlan) error
	Scan(ctx context.Context) ([]domain.SubscriptionPlan, error)
}

type service struct {
	repo planStore
}

type ServiceDeps struct {
	PlanRepo planStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.PlanRepo}
}

func (s *service) List(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Put(ctx context.Context, planType string, input domain.SubscriptionPlanInput) (*domain.SubscriptionPlan, error) {
	planType = strings.TrimSpace(planType)
	if planType == "" {
		return nil, fmt.Errorf("plan type required: %w", domain.ErrBadRequest)
	}
	features := make([]domain.FeatureKey, 0, len(input.Features))
	seen := make(map[domain.FeatureKey]bool, len(input.Features))
	for _, f := range input.Features {
		if !f.Valid() {
			return nil, fmt.Errorf("unknown feature %q: %w", f, domain.ErrBadRequest)
		}
		if !seen[f] {
			seen[f] = true
			features = append(features, f)
		}
	}
	p := &domain.SubscriptionPlan{
		PlanType: planType,
		Name:     input.Name,
		IsActive: input.IsActive == nil || *input.IsActive,
		Features: features,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
