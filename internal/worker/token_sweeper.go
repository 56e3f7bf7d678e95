// Package worker contains background maintenance loops.
package worker

import (
	"context"
	"time"

	"github.com/ashpawlabs/ashpaw/internal/metrics"
	"github.com/ashpawlabs/ashpaw/internal/observability/logger"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

// TokenSweeper periodically deletes exchange tokens whose expiry is older
// than the retention window. Redeemed tokens stay queryable until the window
// passes so late replays still get a token_already_used answer.
type TokenSweeper struct {
	repo      core.Repository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewTokenSweeper builds a sweeper. Non-positive retention or interval fall
// back to 24h and 10m.
func NewTokenSweeper(repo core.Repository, retention, interval time.Duration) *TokenSweeper {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &TokenSweeper{repo: repo, retention: retention, interval: interval, now: time.Now}
}

// Run blocks sweeping on every tick until ctx is cancelled.
func (s *TokenSweeper) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("token_sweeper"))
	log.Info("starting",
		logger.String("retention", s.retention.String()),
		logger.String("interval", s.interval.String()),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single deletion pass. Errors are logged, not returned:
// retention is best-effort and the next tick retries.
func (s *TokenSweeper) SweepOnce(ctx context.Context) {
	log := logger.From(ctx).With(logger.Component("token_sweeper"), logger.Op("SweepOnce"))

	cutoff := s.now().Add(-s.retention)
	n, err := s.repo.DeleteStaleTokens(ctx, cutoff)
	if err != nil {
		log.Error("sweep failed", logger.Err(err))
		return
	}
	if n > 0 {
		metrics.TokensSwept.Add(float64(n))
		log.Info("swept stale tokens", logger.Count(int(n)))
	}
}
