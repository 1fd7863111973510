package service

import (
	"booknet/internal/metrics"
	"booknet/internal/repository"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ResetTokenSweeper clears expired password reset tokens on an interval
type ResetTokenSweeper struct {
	users    repository.UserRepository
	interval time.Duration
	now      func() time.Time
}

func NewResetTokenSweeper(users repository.UserRepository, interval time.Duration) *ResetTokenSweeper {
	return &ResetTokenSweeper{
		users:    users,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps until ctx is cancelled
func (s *ResetTokenSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		logrus.Info("reset token sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("reset token sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single purge and returns the number of cleared tokens
func (s *ResetTokenSweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.users.PurgeExpiredResetTokens(ctx, s.now())
	if err != nil {
		logrus.WithError(err).Error("failed to purge expired reset tokens")
		return 0
	}
	if n > 0 {
		metrics.ResetTokensPurgedTotal.Add(float64(n))
		logrus.WithField("count", n).Info("expired reset tokens purged")
	}
	return n
}
