package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	adminsvc "github.com/ashpawlabs/ashpaw/internal/http/services/admin"
	authsvc "github.com/ashpawlabs/ashpaw/internal/http/services/auth"
	"github.com/ashpawlabs/ashpaw/internal/cache"
	"github.com/ashpawlabs/ashpaw/internal/federation"
	"github.com/ashpawlabs/ashpaw/internal/infra/appcache"
	"github.com/ashpawlabs/ashpaw/internal/security/totp"
	"github.com/ashpawlabs/ashpaw/internal/store/memory"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	repo := memory.New()
	apps := appcache.New(repo, cache.NewMemory(time.Minute), time.Minute)

	reg := prometheus.NewRegistry()

	return New(Deps{
		Repo: repo,
		Apps: adminsvc.NewAppsService(repo, apps),
		Auth: authsvc.NewService(repo, apps, federation.NewMockWeChat(), authsvc.Options{
			ExchangeTTL: 5 * time.Minute,
		}),
		Gatherer: reg,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// TestEndToEnd exercises the full enrollment and token exchange flow over the
// wire: create a tenant, set up TOTP for a user, verify a code, then redeem
// the resulting exchange token exactly once.
func TestEndToEnd(t *testing.T) {
	h := newTestHandler(t)

	// Create a tenant with a callback URL.
	rec := do(t, h, http.MethodPost, "/apps", map[string]any{
		"name":         "Acme Dashboard",
		"description":  "internal tooling",
		"callback_url": "https://acme.example.com/2fa/callback",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var app struct {
		AppID     string `json:"app_id"`
		AppSecret string `json:"app_secret"`
	}
	decode(t, rec, &app)
	require.NotEmpty(t, app.AppID)
	require.NotEmpty(t, app.AppSecret)

	// Fresh user reports everything disabled.
	rec = do(t, h, http.MethodGet, "/auth/status/"+app.AppID+"/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		IsTOTPEnabled   bool `json:"is_totp_enabled"`
		IsWeChatEnabled bool `json:"is_wechat_enabled"`
	}
	decode(t, rec, &status)
	require.False(t, status.IsTOTPEnabled)
	require.False(t, status.IsWeChatEnabled)

	// Enroll.
	rec = do(t, h, http.MethodPost, "/auth/setup/"+app.AppID+"/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var setup struct {
		Secret string `json:"secret"`
		QRCode string `json:"qr_code"`
	}
	decode(t, rec, &setup)
	require.NotEmpty(t, setup.Secret)
	require.NotEmpty(t, setup.QRCode)

	// Verify with a currently valid code.
	code, err := totp.CodeAt(setup.Secret, time.Now())
	require.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/auth/verify/"+app.AppID+"/u1", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, rec.Code)
	var verify struct {
		Status      string  `json:"status"`
		RedirectURL *string `json:"redirect_url"`
	}
	decode(t, rec, &verify)
	require.Equal(t, "success", verify.Status)
	require.NotNil(t, verify.RedirectURL)

	redirect, err := url.Parse(*verify.RedirectURL)
	require.NoError(t, err)
	token := redirect.Query().Get("token")
	require.NotEmpty(t, token)

	// First redemption succeeds.
	rec = do(t, h, http.MethodPost, "/auth/validate-token", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, rec.Code)
	var valid struct {
		Status string `json:"status"`
		AppID  string `json:"app_id"`
		UserID string `json:"user_id"`
	}
	decode(t, rec, &valid)
	require.Equal(t, "valid", valid.Status)
	require.Equal(t, app.AppID, valid.AppID)
	require.Equal(t, "u1", valid.UserID)

	// Replay is rejected.
	rec = do(t, h, http.MethodPost, "/auth/validate-token", map[string]string{"token": token})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr struct {
		Code string `json:"code"`
	}
	decode(t, rec, &apiErr)
	require.Equal(t, "token_already_used", apiErr.Code)

	// The status flag flipped after the first successful verification.
	rec = do(t, h, http.MethodGet, "/auth/status/"+app.AppID+"/u1", nil)
	decode(t, rec, &status)
	require.True(t, status.IsTOTPEnabled)
}

func TestVerify_ErrorBodies(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/apps", map[string]any{"name": "NoCallback"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app struct {
		AppID string `json:"app_id"`
	}
	decode(t, rec, &app)

	var apiErr struct {
		Code string `json:"code"`
	}

	// Unknown tenant.
	rec = do(t, h, http.MethodPost, "/auth/verify/ghost/u1", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	decode(t, rec, &apiErr)
	require.Equal(t, "app_not_found", apiErr.Code)

	// Known tenant, user never enrolled.
	rec = do(t, h, http.MethodPost, "/auth/verify/"+app.AppID+"/u1", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &apiErr)
	require.Equal(t, "user_not_enrolled", apiErr.Code)

	// Enrolled but wrong code.
	rec = do(t, h, http.MethodPost, "/auth/setup/"+app.AppID+"/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/verify/"+app.AppID+"/u1", map[string]string{"code": "000000"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &apiErr)
	require.Equal(t, "invalid_code", apiErr.Code)

	// Missing code entirely.
	rec = do(t, h, http.MethodPost, "/auth/verify/"+app.AppID+"/u1", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &apiErr)
	require.Equal(t, "bad_request", apiErr.Code)

	// Garbage JSON.
	req := httptest.NewRequest(http.MethodPost, "/auth/verify/"+app.AppID+"/u1", bytes.NewBufferString("{nope"))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestValidateToken_Unknown(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/auth/validate-token", map[string]string{"token": "deadbeef"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr struct {
		Code string `json:"code"`
	}
	decode(t, rec, &apiErr)
	require.Equal(t, "token_not_found", apiErr.Code)
}

func TestAdminSurface(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/apps", map[string]any{"name": "One"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var app struct {
		AppID string `json:"app_id"`
		Name  string `json:"name"`
	}
	decode(t, rec, &app)

	// Name is required.
	rec = do(t, h, http.MethodPost, "/apps", map[string]any{"description": "nameless"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/apps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []json.RawMessage
	decode(t, rec, &list)
	require.Len(t, list, 1)

	// Partial update leaves the name alone.
	rec = do(t, h, http.MethodPut, "/apps/"+app.AppID, map[string]any{"description": "updated"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	decode(t, rec, &updated)
	require.Equal(t, "One", updated.Name)
	require.Equal(t, "updated", updated.Description)

	rec = do(t, h, http.MethodGet, "/apps/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Reset is idempotent even when the user never existed.
	rec = do(t, h, http.MethodDelete, "/apps/"+app.AppID+"/users/ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/apps/"+app.AppID+"/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []json.RawMessage
	decode(t, rec, &users)
	require.Empty(t, users)
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
	}
	decode(t, rec, &body)
	require.Equal(t, "ok", body.Status)
}
