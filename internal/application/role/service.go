package role

import (
	"context"
	"fmt"

	"github.com/loan-admin-api/internal/domain"
)

type Service interface {
	List(ctx context.Context) ([]domain.RoleDefinition, error)
	Get(ctx context.Context, role domain.Role) (*domain.RoleDefinition, error)
	// Put creates or replaces the permission set for role.
	Put(ctx context.Context, role domain.Role, input domain.RoleInput) (*domain.RoleDefinition, error)
}

type roleStore interface {
	Put(ctx context.Context, def *domain.RoleDefinition) error
	Get(ctx context.Context, role domain.Role) (*domain.RoleDefinition, error)
	Scan(ctx context.Context) ([]domain.RoleDefinition, error)
}

type service struct {
	repo roleStore
}

type ServiceDeps struct {
	RoleRepo roleStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.RoleRepo}
}

func (s *service) List(ctx context.Context) ([]domain.RoleDefinition, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, role domain.Role) (*domain.RoleDefinition, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrBadRequest)
	}
	return s.repo.Get(ctx, role)
}

func (s *service) Put(ctx context.Context, role domain.Role, input domain.RoleInput) (*domain.RoleDefinition, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrBadRequest)
	}
	def := &domain.RoleDefinition{
		Role:        role,
		Name:        input.Name,
		Enable:      input.Enable == nil || *input.Enable,
		Permissions: input.Permissions,
	}
	if err := s.repo.Put(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}
