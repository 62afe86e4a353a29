// Package memory provides an in-process verification store for local development and tests.
// It arbitrates every conditional write under one mutex, giving the same
// at-most-one-winner guarantee as the DynamoDB condition expressions.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loan-admin-api/internal/domain"
)

// VerificationStore is an in-memory verification record store.
type VerificationStore struct {
	mu      sync.Mutex
	records map[string]domain.VerificationRecord
}

// NewVerificationStore returns an empty store.
func NewVerificationStore() *VerificationStore {
	return &VerificationStore{records: make(map[string]domain.VerificationRecord)}
}

func (s *VerificationStore) Put(ctx context.Context, v *domain.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[v.VerificationID]; ok {
		return fmt.Errorf("verification %s already exists: %w", v.VerificationID, domain.ErrConflict)
	}
	s.records[v.VerificationID] = *v
	return nil
}

func (s *VerificationStore) ListByRecipient(ctx context.Context, recipient string) ([]domain.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.VerificationRecord
	for _, v := range s.records {
		if v.Recipient == recipient {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *VerificationStore) Scan(ctx context.Context) ([]domain.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.VerificationRecord, 0, len(s.records))
	for _, v := range s.records {
		out = append(out, v)
	}
	return out, nil
}

func (s *VerificationStore) MarkVerified(ctx context.Context, verificationID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[verificationID]
	if !ok || v.Status != domain.VerificationPending || v.Expired(now) {
		return false, nil
	}
	v.Status = domain.VerificationVerified
	s.records[verificationID] = v
	return true, nil
}

func (s *VerificationStore) DeleteExpiredPending(ctx context.Context, verificationID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[verificationID]
	if !ok || v.Status != domain.VerificationPending || !v.Expired(now) {
		return false, nil
	}
	delete(s.records, verificationID)
	return true, nil
}

func (s *VerificationStore) DeletePending(ctx context.Context, verificationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[verificationID]
	if !ok || v.Status != domain.VerificationPending {
		return false, nil
	}
	delete(s.records, verificationID)
	return true, nil
}
