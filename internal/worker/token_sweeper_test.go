package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ashpawlabs/ashpaw/internal/store/core"
	"github.com/ashpawlabs/ashpaw/internal/store/memory"
)

func TestSweepOnce_RespectsRetention(t *testing.T) {
	repo := memory.New()
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	mk := func(tok string, expiresAt time.Time) {
		require.NoError(t, repo.CreateExchangeToken(context.Background(), &core.ExchangeToken{
			Token:     tok,
			AppID:     "app",
			UserID:    "u1",
			ExpiresAt: expiresAt,
			CreatedAt: expiresAt.Add(-5 * time.Minute),
		}))
	}

	mk("ancient", now.Add(-48*time.Hour))
	mk("recent-expired", now.Add(-time.Hour))
	mk("live", now.Add(5*time.Minute))

	s := NewTokenSweeper(repo, 24*time.Hour, time.Minute)
	s.now = func() time.Time { return now }

	s.SweepOnce(context.Background())

	// Only the token past the retention window is gone.
	_, _, err := repo.RedeemExchangeToken(context.Background(), "ancient", now)
	require.ErrorIs(t, err, core.ErrTokenNotFound)

	_, _, err = repo.RedeemExchangeToken(context.Background(), "recent-expired", now)
	require.ErrorIs(t, err, core.ErrTokenExpired)

	_, _, err = repo.RedeemExchangeToken(context.Background(), "live", now)
	require.NoError(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewTokenSweeper(memory.New(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
