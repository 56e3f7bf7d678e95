package appcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ashpawlabs/ashpaw/internal/cache"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
	"github.com/ashpawlabs/ashpaw/internal/store/memory"
)

func TestGet_CacheAside(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.CreateApp(ctx, &core.App{ID: "1", AppID: "a1", Name: "Acme"}))

	l := New(repo, cache.NewMemory(time.Minute), time.Minute)

	a, err := l.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Acme", a.Name)

	// A stale cached copy is served until invalidation.
	name := "Renamed"
	_, err = repo.UpdateApp(ctx, "a1", core.AppUpdate{Name: &name})
	require.NoError(t, err)

	a, err = l.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Acme", a.Name)

	l.Invalidate(ctx, "a1")
	a, err = l.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", a.Name)
}

func TestGet_NotFoundPassthrough(t *testing.T) {
	ctx := context.Background()
	l := New(memory.New(), cache.NewMemory(time.Minute), time.Minute)

	_, err := l.Get(ctx, "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)
}
