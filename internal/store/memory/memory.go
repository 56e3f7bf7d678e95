// Package memory implements core.Repository with in-process maps. It is the
// driver used by tests and local development; it honors the same
// serialization contract as the postgres driver (one mutex, so the redeem
// check-and-flip is atomic).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

type Store struct {
	mu     sync.Mutex
	apps   map[string]*core.App           // keyed by app_id
	users  map[string]*core.UserAuth      // keyed by app_id + "\x00" + user_id
	tokens map[string]*core.ExchangeToken // keyed by token string
}

func New() *Store {
	return &Store{
		apps:   make(map[string]*core.App),
		users:  make(map[string]*core.UserAuth),
		tokens: make(map[string]*core.ExchangeToken),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

func userKey(appID, userID string) string { return appID + "\x00" + userID }

// ─── Tenant registry ───

func (s *Store) CreateApp(ctx context.Context, a *core.App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[a.AppID]; ok {
		return core.ErrConflict
	}
	cp := *a
	s.apps[a.AppID] = &cp
	return nil
}

func (s *Store) ListApps(ctx context.Context) ([]core.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.App, 0, len(s.apps))
	for _, a := range s.apps {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetAppByAppID(ctx context.Context, appID string) (*core.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[appID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) UpdateApp(ctx context.Context, appID string, upd core.AppUpdate) (*core.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[appID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.CallbackURL != nil {
		v := *upd.CallbackURL
		a.CallbackURL = &v
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	return &cp, nil
}

// ─── User auth records ───

func (s *Store) GetUserAuth(ctx context.Context, appID, userID string) (*core.UserAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, ok := s.users[userKey(appID, userID)]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *ua
	return &cp, nil
}

func (s *Store) GetOrCreateUserAuth(ctx context.Context, appID, userID string) (*core.UserAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := userKey(appID, userID)
	if ua, ok := s.users[k]; ok {
		cp := *ua
		return &cp, nil
	}
	now := time.Now().UTC()
	ua := &core.UserAuth{
		ID:        uuid.NewString(),
		AppID:     appID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[k] = ua
	cp := *ua
	return &cp, nil
}

func (s *Store) SetTOTPSecretIfAbsent(ctx context.Context, appID, userID, secret string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, ok := s.users[userKey(appID, userID)]
	if !ok {
		return "", core.ErrNotFound
	}
	if ua.TOTPSecret != nil {
		return *ua.TOTPSecret, nil
	}
	ua.TOTPSecret = &secret
	ua.UpdatedAt = time.Now().UTC()
	return secret, nil
}

func (s *Store) EnableTOTP(ctx context.Context, appID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, ok := s.users[userKey(appID, userID)]
	if !ok {
		return core.ErrNotFound
	}
	ua.IsTOTPEnabled = true
	ua.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) BindWeChat(ctx context.Context, appID, userID, wechatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, ok := s.users[userKey(appID, userID)]
	if !ok {
		return core.ErrNotFound
	}
	ua.WeChatID = &wechatID
	ua.IsWeChatEnabled = true
	ua.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ListUserAuth(ctx context.Context, appID string) ([]core.UserAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.UserAuth
	for _, ua := range s.users {
		if ua.AppID == appID {
			out = append(out, *ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) DeleteUserAuth(ctx context.Context, appID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userKey(appID, userID))
	return nil
}

// ─── Exchange tokens ───

func (s *Store) CreateExchangeToken(ctx context.Context, t *core.ExchangeToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.Token]; ok {
		return core.ErrConflict
	}
	cp := *t
	s.tokens[t.Token] = &cp
	return nil
}

func (s *Store) RedeemExchangeToken(ctx context.Context, token string, now time.Time) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return "", "", core.ErrTokenNotFound
	}
	if t.IsUsed {
		return "", "", core.ErrTokenUsed
	}
	if !now.Before(t.ExpiresAt) {
		return "", "", core.ErrTokenExpired
	}
	t.IsUsed = true
	u := now
	t.UsedAt = &u
	return t.AppID, t.UserID, nil
}

func (s *Store) DeleteStaleTokens(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

var _ core.Repository = (*Store)(nil)
