package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/pkg/id"
	"github.com/loan-admin-api/internal/tenancy"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// List returns the staff visible through f.
	List(ctx context.Context, f tenancy.Filter) ([]domain.Staff, error)
	// Get returns one staff member, or domain.ErrNotFound when f hides them.
	Get(ctx context.Context, f tenancy.Filter, staffID string) (*domain.Staff, error)
	Create(ctx context.Context, organisationID string, req domain.CreateStaffRequest) (*domain.Staff, error)
}

type staffStore interface {
	Put(ctx context.Context, s *domain.Staff) error
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*domain.Staff, error)
	ListByOrganisation(ctx context.Context, organisationID string) ([]domain.Staff, error)
	Scan(ctx context.Context) ([]domain.Staff, error)
}

type service struct {
	repo staffStore
}

type ServiceDeps struct {
	StaffRepo staffStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.StaffRepo}
}

func (s *service) List(ctx context.Context, f tenancy.Filter) ([]domain.Staff, error) {
	return tenancy.Query(f,
		func(orgID string) ([]domain.Staff, error) { return s.repo.ListByOrganisation(ctx, orgID) },
		func() ([]domain.Staff, error) { return s.repo.Scan(ctx) },
	)
}

func (s *service) Get(ctx context.Context, f tenancy.Filter, staffID string) (*domain.Staff, error) {
	if f.Empty() {
		return nil, fmt.Errorf("no organisation in scope: %w", domain.ErrForbidden)
	}
	member, err := s.repo.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	// Out-of-scope records are indistinguishable from missing ones.
	if !f.Allows(member.OrganisationID) {
		return nil, fmt.Errorf("staff not found: %w", domain.ErrNotFound)
	}
	return member, nil
}

func (s *service) Create(ctx context.Context, organisationID string, req domain.CreateStaffRequest) (*domain.Staff, error) {
	if organisationID == "" {
		return nil, fmt.Errorf("no active organisation: %w", domain.ErrBadRequest)
	}
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	member := &domain.Staff{
		StaffID:        id.New(),
		OrganisationID: organisationID,
		Email:          email,
		Phone:          req.Phone,
		PasswordHash:   string(hash),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		Enable:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
