// Package confirmation lets staff prove ownership of their email address or phone number
// and records the result on the staff profile.
package confirmation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loan-admin-api/internal/domain"
)

const (
	fieldEmailVerified = "email_verified"
	fieldPhoneVerified = "phone_verified"
)

type Service interface {
	// Request issues a code for member's own address on channel and delivers it.
	Request(ctx context.Context, member *domain.Staff, channel domain.Channel) error
	// ConfirmCode validates a code typed in by the signed-in member.
	ConfirmCode(ctx context.Context, member *domain.Staff, channel domain.Channel, code string) (bool, error)
	// ConfirmToken validates a link token; the caller is not signed in.
	ConfirmToken(ctx context.Context, recipient string, channel domain.Channel, token string) (bool, error)
	Status(ctx context.Context, member *domain.Staff, channel domain.Channel) (bool, error)
}

type verifier interface {
	Issue(ctx context.Context, subjectID, recipient string, channel domain.Channel) (*domain.VerificationRecord, error)
	ValidateCode(ctx context.Context, recipient string, channel domain.Channel, code string) (bool, error)
	ConsumeToken(ctx context.Context, recipient string, channel domain.Channel, token string) (*domain.VerificationRecord, error)
	IsVerified(ctx context.Context, recipient string, channel domain.Channel) (bool, error)
}

type notifier interface {
	Deliver(ctx context.Context, rec *domain.VerificationRecord) error
}

type staffStore interface {
	Update(ctx context.Context, staffID string, updates map[string]interface{}) error
}

type service struct {
	engine   verifier
	notifier notifier
	staff    staffStore
}

type ServiceDeps struct {
	Engine    verifier
	Notifier  notifier
	StaffRepo staffStore
}

func NewService(deps ServiceDeps) Service {
	return &service{engine: deps.Engine, notifier: deps.Notifier, staff: deps.StaffRepo}
}

func (s *service) Request(ctx context.Context, member *domain.Staff, channel domain.Channel) error {
	recipient := member.Recipient(channel)
	if recipient == "" && channel.Valid() {
		return fmt.Errorf("no %s on profile: %w", channel, domain.ErrBadRequest)
	}
	rec, err := s.engine.Issue(ctx, member.StaffID, recipient, channel)
	if err != nil {
		return err
	}
	return s.notifier.Deliver(ctx, rec)
}

func (s *service) ConfirmCode(ctx context.Context, member *domain.Staff, channel domain.Channel, code string) (bool, error) {
	recipient := member.Recipient(channel)
	if recipient == "" && channel.Valid() {
		return false, fmt.Errorf("no %s on profile: %w", channel, domain.ErrBadRequest)
	}
	ok, err := s.engine.ValidateCode(ctx, recipient, channel, code)
	if err != nil || !ok {
		return false, err
	}
	return true, s.markVerified(ctx, member.StaffID, channel)
}

func (s *service) ConfirmToken(ctx context.Context, recipient string, channel domain.Channel, token string) (bool, error) {
	// The subject comes from the record the token flipped. A fresher record for
	// the same address may already exist and can belong to someone else.
	rec, err := s.engine.ConsumeToken(ctx, recipient, channel, token)
	if err != nil || rec == nil {
		return false, err
	}
	if rec.SubjectID == "" {
		slog.Warn("verified token has no subject", "channel", channel)
		return true, nil
	}
	return true, s.markVerified(ctx, rec.SubjectID, channel)
}

func (s *service) Status(ctx context.Context, member *domain.Staff, channel domain.Channel) (bool, error) {
	recipient := member.Recipient(channel)
	if recipient == "" && channel.Valid() {
		return false, nil
	}
	return s.engine.IsVerified(ctx, recipient, channel)
}

func (s *service) markVerified(ctx context.Context, staffID string, channel domain.Channel) error {
	field := fieldEmailVerified
	if channel == domain.ChannelPhone {
		field = fieldPhoneVerified
	}
	if err := s.staff.Update(ctx, staffID, map[string]interface{}{field: true}); err != nil {
		return fmt.Errorf("record %s verification: %w", channel, err)
	}
	return nil
}
