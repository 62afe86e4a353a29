package http

import (
	"context"
	"time"

	"github.com/loan-admin-api/internal/domain"
)

// StaffRepository is the union of what the services need from a staff store.
type StaffRepository interface {
	Put(ctx context.Context, s *domain.Staff) error
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*domain.Staff, error)
	ListByOrganisation(ctx context.Context, organisationID string) ([]domain.Staff, error)
	Scan(ctx context.Context) ([]domain.Staff, error)
	Update(ctx context.Context, staffID string, updates map[string]interface{}) error
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	SoftDeleteByStaff(ctx context.Context, staffID string) error
}

type OrganisationRepository interface {
	Put(ctx context.Context, o *domain.Organisation) error
	Get(ctx context.Context, organisationID string) (*domain.Organisation, error)
	Scan(ctx context.Context) ([]domain.Organisation, error)
}

type PlanRepository interface {
	Put(ctx context.Context, p *domain.SubscriptionPlan) error
	Get(ctx context.Context, planType string) (*domain.SubscriptionPlan, error)
	Scan(ctx context.Context) ([]domain.SubscriptionPlan, error)
}

type RoleRepository interface {
	Put(ctx context.Context, def *domain.RoleDefinition) error
	Get(ctx context.Context, role domain.Role) (*domain.RoleDefinition, error)
	Scan(ctx context.Context) ([]domain.RoleDefinition, error)
}

// VerificationStore is implemented by both the DynamoDB repo and the in-memory store.
// MarkVerified and the Delete* methods must be atomic compare-and-set operations.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.VerificationRecord) error
	ListByRecipient(ctx context.Context, recipient string) ([]domain.VerificationRecord, error)
	Scan(ctx context.Context) ([]domain.VerificationRecord, error)
	MarkVerified(ctx context.Context, verificationID string, now time.Time) (bool, error)
	DeleteExpiredPending(ctx context.Context, verificationID string, now time.Time) (bool, error)
	DeletePending(ctx context.Context, verificationID string) (bool, error)
}
