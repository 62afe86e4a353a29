package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loan-admin-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1_700_000_000, 0)

func pending(id, recipient string, expiresAt time.Time) *domain.VerificationRecord {
	return &domain.VerificationRecord{
		VerificationID: id,
		Recipient:      recipient,
		Channel:        domain.ChannelEmail,
		Status:         domain.VerificationPending,
		ExpiresAt:      expiresAt.UnixMilli(),
		CreatedAt:      now,
	}
}

func TestPut_DuplicateID_Conflict(t *testing.T) {
	s := NewVerificationStore()
	require.NoError(t, s.Put(context.Background(), pending("v1", "a@b.com", now)))
	err := s.Put(context.Background(), pending("v1", "a@b.com", now))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func stored(t *testing.T, s *VerificationStore, id string) domain.VerificationRecord {
	t.Helper()
	all, err := s.Scan(context.Background())
	require.NoError(t, err)
	for _, v := range all {
		if v.VerificationID == id {
			return v
		}
	}
	t.Fatalf("verification %s not stored", id)
	return domain.VerificationRecord{}
}

func TestMarkVerified_Missing(t *testing.T) {
	ok, err := NewVerificationStore().MarkVerified(context.Background(), "nope", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByRecipient_FiltersRecipient(t *testing.T) {
	s := NewVerificationStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, pending("v1", "a@b.com", now)))
	require.NoError(t, s.Put(ctx, pending("v2", "c@d.com", now)))

	got, err := s.ListByRecipient(ctx, "a@b.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v1", got[0].VerificationID)
}

func TestMarkVerified_OnlyOnce(t *testing.T) {
	s := NewVerificationStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, pending("v1", "a@b.com", now.Add(time.Minute))))

	ok, err := s.MarkVerified(ctx, "v1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkVerified(ctx, "v1", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkVerified_ExpiredRefused(t *testing.T) {
	s := NewVerificationStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, pending("v1", "a@b.com", now.Add(-time.Millisecond))))

	ok, err := s.MarkVerified(ctx, "v1", now)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, domain.VerificationPending, stored(t, s, "v1").Status)
}

func TestMarkVerified_ConcurrentSingleWinner(t *testing.T) {
	s := NewVerificationStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, pending("v1", "a@b.com", now.Add(time.Minute))))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.MarkVerified(ctx, "v1", now); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestDeleteExpiredPending_RechecksState(t *testing.T) {
	s := NewVerificationStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, pending("fresh", "a@b.com", now.Add(time.Minute))))
	require.NoError(t, s.Put(ctx, pending("stale", "a@b.com", now.Add(-time.Minute))))
	verified := pending("done", "a@b.com", now.Add(-time.Minute))
	verified.Status = domain.VerificationVerified
	require.NoError(t, s.Put(ctx, verified))

	for id, want := range map[string]bool{"fresh": false, "stale": true, "done": false} {
		ok, err := s.DeleteExpiredPending(ctx, id, now)
		require.NoError(t, err)
		assert.Equal(t, want, ok, id)
	}
	all, err := s.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeletePending_KeepsVerified(t *testing.T) {
	s := NewVerificationStore()
	ctx := context.Background()
	v := pending("v1", "a@b.com", now.Add(time.Minute))
	v.Status = domain.VerificationVerified
	require.NoError(t, s.Put(ctx, v))

	ok, err := s.DeletePending(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, ok)
}
