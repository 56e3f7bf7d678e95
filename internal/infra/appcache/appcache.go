// Package appcache is a cache-aside layer over application lookups. Every
// end-user operation resolves its tenant first, so this is the hottest read
// in the service.
package appcache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ashpawlabs/ashpaw/internal/cache"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

type Lookup struct {
	repo  core.Repository
	cache cache.Client
	ttl   time.Duration
	sf    singleflight.Group
}

func New(repo core.Repository, c cache.Client, ttl time.Duration) *Lookup {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Lookup{repo: repo, cache: c, ttl: ttl}
}

func cacheKey(appID string) string { return "app:" + appID }

// Get resolves an application by app_id, hitting the cache first. Concurrent
// misses on the same app_id are collapsed into one store query.
func (l *Lookup) Get(ctx context.Context, appID string) (*core.App, error) {
	if raw, err := l.cache.Get(ctx, cacheKey(appID)); err == nil {
		var a core.App
		if json.Unmarshal([]byte(raw), &a) == nil {
			return &a, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = l.cache.Delete(ctx, cacheKey(appID))
	}

	v, err, _ := l.sf.Do(appID, func() (any, error) {
		a, err := l.repo.GetAppByAppID(ctx, appID)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(a); err == nil {
			_ = l.cache.Set(ctx, cacheKey(appID), string(b), l.ttl)
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.App), nil
}

// Invalidate drops the cached entry; called after admin updates so the next
// lookup sees fresh callback/name data.
func (l *Lookup) Invalidate(ctx context.Context, appID string) {
	_ = l.cache.Delete(ctx, cacheKey(appID))
}
