package core

import (
	"context"
	"time"
)

// Repository is the persistence contract shared by the postgres and memory
// drivers. Implementations must serialize conflicting writes to the same row;
// RedeemExchangeToken additionally requires an atomic check-and-flip.
type Repository interface {
	Ping(ctx context.Context) error
	Close()

	// Tenant registry
	CreateApp(ctx context.Context, a *App) error
	ListApps(ctx context.Context) ([]App, error)
	GetAppByAppID(ctx context.Context, appID string) (*App, error)
	UpdateApp(ctx context.Context, appID string, upd AppUpdate) (*App, error)

	// User auth records
	GetUserAuth(ctx context.Context, appID, userID string) (*UserAuth, error)
	GetOrCreateUserAuth(ctx context.Context, appID, userID string) (*UserAuth, error)
	// SetTOTPSecretIfAbsent assigns the secret only when none is stored yet
	// and returns the secret that won (first write wins).
	SetTOTPSecretIfAbsent(ctx context.Context, appID, userID, secret string) (string, error)
	EnableTOTP(ctx context.Context, appID, userID string) error
	BindWeChat(ctx context.Context, appID, userID, wechatID string) error
	ListUserAuth(ctx context.Context, appID string) ([]UserAuth, error)
	DeleteUserAuth(ctx context.Context, appID, userID string) error

	// Exchange tokens
	CreateExchangeToken(ctx context.Context, t *ExchangeToken) error
	// RedeemExchangeToken flips is_used exactly once. Concurrent calls on the
	// same token must yield one success; losers observe ErrTokenUsed,
	// ErrTokenExpired or ErrTokenNotFound.
	RedeemExchangeToken(ctx context.Context, token string, now time.Time) (appID, userID string, err error)
	// DeleteStaleTokens removes tokens whose expiry is before the cutoff.
	// With a cutoff in the past every deleted row is terminal, so
	// at-most-once redemption is preserved.
	DeleteStaleTokens(ctx context.Context, before time.Time) (int64, error)
}
