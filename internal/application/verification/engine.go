// Package verification issues and validates single-use, time-bound codes and link tokens
// that prove ownership of an email address or phone number.
package verification

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/loan-admin-api/internal/domain"
	"github.com/loan-admin-api/internal/pkg/id"
	pkgtoken "github.com/loan-admin-api/internal/pkg/token"
)

// DefaultTTL is how long an issued code stays acceptable.
const DefaultTTL = 15 * time.Minute

// store is satisfied by *dynamo.VerificationRepo and *memory.VerificationStore.
// MarkVerified and both deletes are conditional: they return false when the
// stored record no longer matches the expected state.
type store interface {
	Put(ctx context.Context, v *domain.VerificationRecord) error
	ListByRecipient(ctx context.Context, recipient string) ([]domain.VerificationRecord, error)
	Scan(ctx context.Context) ([]domain.VerificationRecord, error)
	MarkVerified(ctx context.Context, verificationID string, now time.Time) (bool, error)
	DeleteExpiredPending(ctx context.Context, verificationID string, now time.Time) (bool, error)
	DeletePending(ctx context.Context, verificationID string) (bool, error)
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.ttl = ttl }
}

// Engine owns the verification record lifecycle: pending -> verified, or pending -> removed
// once expired. It holds no state of its own; every decision is arbitrated by the store.
type Engine struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

func NewEngine(s store, opts ...Option) *Engine {
	e := &Engine{store: s, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Issue mints a fresh pending record for recipient on channel and persists it.
// Once the new record is stored, pending records previously issued to the same recipient
// and channel are removed, so only the newest code stays live. A failed write leaves the
// earlier codes untouched. The returned record carries the plaintext code and token for delivery.
func (e *Engine) Issue(ctx context.Context, subjectID, recipient string, channel domain.Channel) (*domain.VerificationRecord, error) {
	if err := checkTarget(recipient, channel); err != nil {
		return nil, err
	}
	code, err := pkgtoken.NewCode()
	if err != nil {
		return nil, err
	}
	tok, err := pkgtoken.New()
	if err != nil {
		return nil, err
	}

	existing, err := e.store.ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	rec := &domain.VerificationRecord{
		VerificationID: id.New(),
		SubjectID:      subjectID,
		Recipient:      recipient,
		Channel:        channel,
		Code:           code,
		Token:          tok,
		Status:         domain.VerificationPending,
		ExpiresAt:      now.Add(e.ttl).UnixMilli(),
		CreatedAt:      now,
	}
	if err := e.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	for _, v := range existing {
		if v.VerificationID == rec.VerificationID || v.Channel != channel || v.Status != domain.VerificationPending {
			continue
		}
		// false means it was verified or swept in the meantime; either way it is no longer live.
		if _, err := e.store.DeletePending(ctx, v.VerificationID); err != nil {
			return nil, fmt.Errorf("supersede verification %s: %w", v.VerificationID, err)
		}
	}
	return rec, nil
}

// ValidateCode accepts code for recipient on channel at most once.
// Unknown, expired, already-used and lost-race codes all return false with a nil error.
func (e *Engine) ValidateCode(ctx context.Context, recipient string, channel domain.Channel, code string) (bool, error) {
	rec, err := e.ConsumeCode(ctx, recipient, channel, code)
	return rec != nil, err
}

// ValidateToken is ValidateCode for the link token.
func (e *Engine) ValidateToken(ctx context.Context, recipient string, channel domain.Channel, token string) (bool, error) {
	rec, err := e.ConsumeToken(ctx, recipient, channel, token)
	return rec != nil, err
}

// ConsumeCode is ValidateCode returning the record this call moved to verified,
// or nil for every negative outcome.
func (e *Engine) ConsumeCode(ctx context.Context, recipient string, channel domain.Channel, code string) (*domain.VerificationRecord, error) {
	return e.consume(ctx, recipient, channel, func(v *domain.VerificationRecord) bool {
		return v.Code == code
	}, code)
}

// ConsumeToken is ConsumeCode for the link token.
func (e *Engine) ConsumeToken(ctx context.Context, recipient string, channel domain.Channel, token string) (*domain.VerificationRecord, error) {
	return e.consume(ctx, recipient, channel, func(v *domain.VerificationRecord) bool {
		return v.Token == token
	}, token)
}

func (e *Engine) consume(ctx context.Context, recipient string, channel domain.Channel, match func(*domain.VerificationRecord) bool, secret string) (*domain.VerificationRecord, error) {
	if err := checkTarget(recipient, channel); err != nil {
		return nil, err
	}
	if secret == "" {
		return nil, nil
	}
	records, err := e.store.ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}
	var candidates []domain.VerificationRecord
	for i := range records {
		v := &records[i]
		if v.Channel == channel && v.Status == domain.VerificationPending && match(v) {
			candidates = append(candidates, *v)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	newest := newestOf(candidates)
	now := e.now()
	if newest.Expired(now) {
		return nil, nil
	}
	ok, err := e.store.MarkVerified(ctx, newest.VerificationID, now)
	if err != nil || !ok {
		return nil, err
	}
	newest.Status = domain.VerificationVerified
	return &newest, nil
}

// Latest returns the most recently issued record for recipient on channel, or nil when none exists.
func (e *Engine) Latest(ctx context.Context, recipient string, channel domain.Channel) (*domain.VerificationRecord, error) {
	if err := checkTarget(recipient, channel); err != nil {
		return nil, err
	}
	records, err := e.store.ListByRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}
	var onChannel []domain.VerificationRecord
	for _, v := range records {
		if v.Channel == channel {
			onChannel = append(onChannel, v)
		}
	}
	if len(onChannel) == 0 {
		return nil, nil
	}
	newest := newestOf(onChannel)
	return &newest, nil
}

// IsVerified reports whether the latest record for recipient on channel has been verified.
// Expiry does not matter once a record is verified.
func (e *Engine) IsVerified(ctx context.Context, recipient string, channel domain.Channel) (bool, error) {
	v, err := e.Latest(ctx, recipient, channel)
	if err != nil || v == nil {
		return false, err
	}
	return v.Status == domain.VerificationVerified, nil
}

// CleanupExpired removes every pending record past its expiry and returns how many were removed.
// Each delete re-checks status and expiry in the store, so a record verified after the scan survives.
func (e *Engine) CleanupExpired(ctx context.Context) (int, error) {
	records, err := e.store.Scan(ctx)
	if err != nil {
		return 0, err
	}
	now := e.now()
	removed := 0
	for i := range records {
		v := &records[i]
		if v.Status != domain.VerificationPending || !v.Expired(now) {
			continue
		}
		ok, err := e.store.DeleteExpiredPending(ctx, v.VerificationID, now)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func checkTarget(recipient string, channel domain.Channel) error {
	if recipient == "" {
		return fmt.Errorf("recipient required: %w", domain.ErrBadRequest)
	}
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	return nil
}

// newestOf orders by created_at, breaking ties by the larger id. records must be non-empty.
func newestOf(records []domain.VerificationRecord) domain.VerificationRecord {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].VerificationID > records[j].VerificationID
	})
	return records[0]
}
