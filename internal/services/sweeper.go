package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
)

const sweepBatchSize = 100

// Sweeper expires in-progress attempts whose client never submitted.
type Sweeper struct {
	repo     repositories.Repository
	attempts AttemptService
	grace    time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(repo repositories.Repository, attempts AttemptService, grace, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		attempts: attempts,
		grace:    grace,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Attempt sweeper started", "interval", s.interval, "grace", s.grace)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Attempt sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("Attempt sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce expires one batch of overdue attempts and returns how many were
// finalized. A failure on one attempt does not stop the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.grace)
	overdue, err := s.repo.Attempt().GetOverdue(ctx, nil, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, a := range overdue {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if _, err := s.attempts.HandleTimeout(ctx, a.ID); err != nil {
			s.logger.Warn("Failed to expire attempt", "attempt_id", a.ID, "error", err)
			continue
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("Expired overdue attempts", "count", expired)
	}
	return expired, nil
}
