package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loan-admin-api/internal/domain"
	pkgtoken "github.com/loan-admin-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const fieldEnable = "enable"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	// LogoutAll ends every session the staff member holds.
	LogoutAll(ctx context.Context, staffID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*domain.Staff, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error
	SoftDeleteByStaff(ctx context.Context, staffID string) error
}

type jwtSigner interface {
	Sign(staffID, role, sessionID string) (string, error)
}

type service struct {
	staffRepo   staffStore
	sessionRepo sessionStore
	jwtProvider jwtSigner
	refreshTTL  time.Duration
}

type ServiceDeps struct {
	StaffRepo   staffStore
	SessionRepo sessionStore
	JWTProvider jwtSigner
	RefreshTTL  time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		staffRepo:   deps.StaffRepo,
		sessionRepo: deps.SessionRepo,
		jwtProvider: deps.JWTProvider,
		refreshTTL:  deps.RefreshTTL,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	member, err := s.staffRepo.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !member.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	refreshToken, err := pkgtoken.New()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        uuid.NewString(),
		StaffID:          member.StaffID,
		OrganisationID:   member.OrganisationID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTTL).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(member.StaffID, string(member.Role), sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.Staff = member
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Update(ctx, sessionID, map[string]interface{}{fieldEnable: false})
}

func (s *service) LogoutAll(ctx context.Context, staffID string) error {
	return s.sessionRepo.SoftDeleteByStaff(ctx, staffID)
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session ended: %w", domain.ErrUnauthorized)
	}
	member, err := s.staffRepo.Get(ctx, sess.StaffID)
	if err != nil {
		return nil, err
	}
	sess.Staff = member
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
		}
		return "", "", err
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	member, err := s.staffRepo.Get(ctx, sess.StaffID)
	if err != nil {
		return "", "", err
	}
	if !member.Enable {
		return "", "", fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	newToken, err := pkgtoken.New()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTTL).Unix()
	if err := s.sessionRepo.RotateRefreshToken(ctx, sess.SessionID, refreshToken, newToken, newExpiry); err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(member.StaffID, string(member.Role), sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}
