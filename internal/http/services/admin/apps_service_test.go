package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ashpawlabs/ashpaw/internal/cache"
	dto "github.com/ashpawlabs/ashpaw/internal/http/dto/admin"
	"github.com/ashpawlabs/ashpaw/internal/infra/appcache"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
	"github.com/ashpawlabs/ashpaw/internal/store/memory"
)

func newService(t *testing.T) (AppsService, *memory.Store) {
	t.Helper()
	repo := memory.New()
	lookup := appcache.New(repo, cache.NewMemory(time.Minute), time.Minute)
	return NewAppsService(repo, lookup), repo
}

func str(s string) *string { return &s }

func TestCreate_GeneratesCredentials(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateAppRequest{Name: "Acme", Description: "test tenant"})
	require.NoError(t, err)
	require.NotEmpty(t, created.AppID)
	require.NotEmpty(t, created.AppSecret)
	require.NotEqual(t, created.AppID, created.AppSecret)
	require.Nil(t, created.CallbackURL)

	got, err := svc.Get(ctx, created.AppID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)
}

func TestCreate_RequiresName(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), dto.CreateAppRequest{})
	require.ErrorIs(t, err, core.ErrInvalid)
}

func TestUpdate_PartialSemantics(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateAppRequest{
		Name:        "Acme",
		Description: "original",
		CallbackURL: str("https://acme.test/cb"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.AppID, dto.UpdateAppRequest{Name: str("Acme Corp")})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", updated.Name)
	require.Equal(t, "original", updated.Description)
	require.Equal(t, "https://acme.test/cb", *updated.CallbackURL)
	require.Equal(t, created.AppSecret, updated.AppSecret, "credentials are immutable")

	_, err = svc.Update(ctx, "ghost", dto.UpdateAppRequest{Name: str("x")})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestList_ReturnsAll(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateAppRequest{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, dto.CreateAppRequest{Name: "B"})
	require.NoError(t, err)

	apps, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
}

func TestListUsersAndReset(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateAppRequest{Name: "Acme"})
	require.NoError(t, err)

	_, err = repo.GetOrCreateUserAuth(ctx, created.AppID, "u1")
	require.NoError(t, err)
	require.NoError(t, repo.EnableTOTP(ctx, created.AppID, "u1"))

	users, err := svc.ListUsers(ctx, created.AppID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "u1", users[0].UserID)
	require.True(t, users[0].IsTOTPEnabled)

	require.NoError(t, svc.ResetUser(ctx, created.AppID, "u1"))
	// Resetting again is still a success.
	require.NoError(t, svc.ResetUser(ctx, created.AppID, "u1"))

	users, err = svc.ListUsers(ctx, created.AppID)
	require.NoError(t, err)
	require.Empty(t, users)
}
