// Package notification delivers freshly issued verification codes to their recipient.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/loan-admin-api/internal/domain"
)

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service delivers a verification record over its own channel.
type Service interface {
	Deliver(ctx context.Context, rec *domain.VerificationRecord) error
}

type service struct {
	mailer      mailer
	sms         smsSender
	linkBaseURL string
}

type ServiceDeps struct {
	Mailer      mailer
	SMSSender   smsSender
	LinkBaseURL string
}

func NewService(deps ServiceDeps) Service {
	return &service{mailer: deps.Mailer, sms: deps.SMSSender, linkBaseURL: deps.LinkBaseURL}
}

func (s *service) Deliver(ctx context.Context, rec *domain.VerificationRecord) error {
	switch rec.Channel {
	case domain.ChannelEmail:
		link, err := s.link(rec)
		if err != nil {
			return err
		}
		body := fmt.Sprintf("Your verification code is %s.\n\nOr confirm this address by opening:\n%s\n\nThe code expires at %s.",
			rec.Code, link, time.UnixMilli(rec.ExpiresAt).UTC().Format(time.RFC1123))
		return s.mailer.SendEmail(rec.Recipient, "Confirm your email address", body)
	case domain.ChannelPhone:
		if s.sms == nil {
			return errors.New("sms delivery not configured")
		}
		return s.sms.SendSMS(ctx, rec.Recipient, fmt.Sprintf("Your verification code is %s", rec.Code))
	default:
		return fmt.Errorf("unknown channel %q: %w", rec.Channel, domain.ErrBadRequest)
	}
}

func (s *service) link(rec *domain.VerificationRecord) (string, error) {
	u, err := url.Parse(s.linkBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse verification link base: %w", err)
	}
	q := u.Query()
	q.Set("channel", string(rec.Channel))
	q.Set("recipient", rec.Recipient)
	q.Set("token", rec.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
