package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepInterval is the cadence of the background expiry sweep.
const SweepInterval = time.Minute

// Sweeper deletes expired sessions on a fixed cadence. A failed sweep is
// logged and waits for the next tick; there is no immediate retry, so the
// worst case is one missed reclaim cycle.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(store Store, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: SweepInterval,
		logger:   logger,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

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
	deleted, err := s.store.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("session cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("cleaned up expired sessions", zap.Int("deleted", deleted))
	}
}
