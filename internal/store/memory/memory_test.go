package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

func newToken(tok string, ttl time.Duration) *core.ExchangeToken {
	now := time.Now().UTC()
	return &core.ExchangeToken{
		Token:     tok,
		AppID:     "app-1",
		UserID:    "u1",
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func TestRedeem_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.CreateExchangeToken(ctx, newToken("t1", 5*time.Minute)))

	appID, userID, err := s.RedeemExchangeToken(ctx, "t1", now)
	require.NoError(t, err)
	require.Equal(t, "app-1", appID)
	require.Equal(t, "u1", userID)

	_, _, err = s.RedeemExchangeToken(ctx, "t1", now)
	require.ErrorIs(t, err, core.ErrTokenUsed)

	_, _, err = s.RedeemExchangeToken(ctx, "missing", now)
	require.ErrorIs(t, err, core.ErrTokenNotFound)
}

func TestRedeem_Expired(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateExchangeToken(ctx, newToken("t1", 5*time.Minute)))

	// Redemption exactly at and after expiry fails even though never used.
	late := time.Now().UTC().Add(5 * time.Minute)
	_, _, err := s.RedeemExchangeToken(ctx, "t1", late)
	require.ErrorIs(t, err, core.ErrTokenExpired)

	// Still expired, not "used", on retry.
	_, _, err = s.RedeemExchangeToken(ctx, "t1", late.Add(time.Hour))
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRedeem_ConcurrentAtMostOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.CreateExchangeToken(ctx, newToken("t1", 5*time.Minute)))

	const callers = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		usedErrs  int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := s.RedeemExchangeToken(ctx, "t1", now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, core.ErrTokenUsed):
				usedErrs++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, successes, "exactly one caller may redeem")
	require.Equal(t, callers-1, usedErrs)
}

func TestUserAuth_GetOrCreateAndFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s := New()

	ua, err := s.GetOrCreateUserAuth(ctx, "app-1", "u1")
	require.NoError(t, err)
	require.Nil(t, ua.TOTPSecret)
	require.False(t, ua.IsTOTPEnabled)

	again, err := s.GetOrCreateUserAuth(ctx, "app-1", "u1")
	require.NoError(t, err)
	require.Equal(t, ua.ID, again.ID)

	secret, err := s.SetTOTPSecretIfAbsent(ctx, "app-1", "u1", "SECRET-A")
	require.NoError(t, err)
	require.Equal(t, "SECRET-A", secret)

	// Second write is a no-op: the first secret wins.
	secret, err = s.SetTOTPSecretIfAbsent(ctx, "app-1", "u1", "SECRET-B")
	require.NoError(t, err)
	require.Equal(t, "SECRET-A", secret)
}

func TestUserAuth_DeleteResetsRecord(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetOrCreateUserAuth(ctx, "app-1", "u1")
	require.NoError(t, err)
	_, err = s.SetTOTPSecretIfAbsent(ctx, "app-1", "u1", "SECRET")
	require.NoError(t, err)
	require.NoError(t, s.EnableTOTP(ctx, "app-1", "u1"))

	require.NoError(t, s.DeleteUserAuth(ctx, "app-1", "u1"))
	// Deleting an absent record is an idempotent success.
	require.NoError(t, s.DeleteUserAuth(ctx, "app-1", "u1"))

	_, err = s.GetUserAuth(ctx, "app-1", "u1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestBindWeChat_OverwriteAllowed(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetOrCreateUserAuth(ctx, "app-1", "u1")
	require.NoError(t, err)

	require.NoError(t, s.BindWeChat(ctx, "app-1", "u1", "wx_u1"))
	require.NoError(t, s.BindWeChat(ctx, "app-1", "u1", "wx_other"))

	ua, err := s.GetUserAuth(ctx, "app-1", "u1")
	require.NoError(t, err)
	require.True(t, ua.IsWeChatEnabled)
	require.Equal(t, "wx_other", *ua.WeChatID)
}

func TestDeleteStaleTokens(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	old := newToken("old", -2*time.Hour)
	fresh := newToken("fresh", 5*time.Minute)
	require.NoError(t, s.CreateExchangeToken(ctx, old))
	require.NoError(t, s.CreateExchangeToken(ctx, fresh))

	n, err := s.DeleteStaleTokens(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, _, err = s.RedeemExchangeToken(ctx, "old", now)
	require.ErrorIs(t, err, core.ErrTokenNotFound)
	_, _, err = s.RedeemExchangeToken(ctx, "fresh", now)
	require.NoError(t, err)
}

func TestUpdateApp_PartialFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	cb := "https://acme.test/cb"
	require.NoError(t, s.CreateApp(ctx, &core.App{ID: "1", AppID: "a1", Name: "Acme", CallbackURL: &cb}))

	name := "Acme Corp"
	got, err := s.UpdateApp(ctx, "a1", core.AppUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", got.Name)
	require.Equal(t, cb, *got.CallbackURL, "unspecified fields untouched")

	_, err = s.UpdateApp(ctx, "nope", core.AppUpdate{Name: &name})
	require.ErrorIs(t, err, core.ErrNotFound)
}
