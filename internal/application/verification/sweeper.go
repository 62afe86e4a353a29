package verification

import (
	"context"
	"log/slog"
	"time"
)

type cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Sweeper periodically removes expired pending records.
type Sweeper struct {
	engine   cleaner
	interval time.Duration
}

func NewSweeper(engine cleaner, interval time.Duration) *Sweeper {
	return &Sweeper{engine: engine, interval: interval}
}

// Run blocks until ctx is cancelled. A failed pass is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.engine.CleanupExpired(ctx)
	if err != nil {
		slog.Warn("verification cleanup failed", "removed", n, "err", err)
		return
	}
	if n > 0 {
		slog.Info("expired verifications removed", "count", n)
	}
}
