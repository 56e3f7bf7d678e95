// Package auth implements the verification orchestrator: it coordinates the
// tenant registry, the code engine, the user-auth records and the exchange
// token manager.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"

	dto "github.com/ashpawlabs/ashpaw/internal/http/dto/auth"
	"github.com/ashpawlabs/ashpaw/internal/federation"
	"github.com/ashpawlabs/ashpaw/internal/infra/appcache"
	"github.com/ashpawlabs/ashpaw/internal/metrics"
	"github.com/ashpawlabs/ashpaw/internal/observability/logger"
	"github.com/ashpawlabs/ashpaw/internal/security/token"
	"github.com/ashpawlabs/ashpaw/internal/security/totp"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

// Service is the end-user facing orchestrator.
type Service interface {
	Status(ctx context.Context, appID, userID string) (*dto.StatusResponse, error)
	Setup(ctx context.Context, appID, userID string) (*dto.SetupResponse, error)
	Verify(ctx context.Context, appID, userID, code string) (*dto.VerifyResponse, error)
	BindWeChat(ctx context.Context, appID, userID string) (*dto.BindWeChatResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*dto.ValidateTokenResponse, error)
}

// Options tune the orchestrator.
type Options struct {
	// ExchangeTTL is the lifetime of issued exchange tokens (default 5m).
	ExchangeTTL time.Duration
	// TOTPSkew is the accepted clock-drift window in time steps (default 1).
	TOTPSkew uint
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type service struct {
	repo core.Repository
	apps *appcache.Lookup
	fed  federation.Provider

	exchangeTTL time.Duration
	skew        uint
	now         func() time.Time
}

// NewService creates the orchestrator.
func NewService(repo core.Repository, apps *appcache.Lookup, fed federation.Provider, opts Options) Service {
	s := &service{
		repo:        repo,
		apps:        apps,
		fed:         fed,
		exchangeTTL: opts.ExchangeTTL,
		skew:        opts.TOTPSkew,
		now:         opts.Now,
	}
	if s.exchangeTTL <= 0 {
		s.exchangeTTL = 5 * time.Minute
	}
	if s.skew == 0 {
		s.skew = 1
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

const componentAuth = "auth.orchestrator"

func (s *service) Status(ctx context.Context, appID, userID string) (*dto.StatusResponse, error) {
	ua, err := s.repo.GetUserAuth(ctx, appID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// No record yet: fully-disabled defaults.
			return &dto.StatusResponse{}, nil
		}
		return nil, err
	}
	return &dto.StatusResponse{
		IsTOTPEnabled:   ua.IsTOTPEnabled,
		IsWeChatEnabled: ua.IsWeChatEnabled,
		WeChatID:        ua.WeChatID,
	}, nil
}

func (s *service) Setup(ctx context.Context, appID, userID string) (*dto.SetupResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentAuth), logger.Op("Setup"))

	app, err := s.resolveApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	ua, err := s.repo.GetOrCreateUserAuth(ctx, appID, userID)
	if err != nil {
		return nil, err
	}

	secret := ""
	if ua.TOTPSecret != nil {
		secret = *ua.TOTPSecret
	} else {
		fresh, err := totp.GenerateSecret()
		if err != nil {
			return nil, err
		}
		// First write wins: a concurrent setup may have stored its secret
		// between the read and this write, in which case we return theirs.
		secret, err = s.repo.SetTOTPSecretIfAbsent(ctx, appID, userID, fresh)
		if err != nil {
			return nil, err
		}
		log.Info("totp secret provisioned", logger.AppID(appID), logger.UserID(userID))
	}

	uri := totp.OTPAuthURL(app.Name, userID, secret)
	png, err := totp.QRCodePNG(uri)
	if err != nil {
		return nil, err
	}

	return &dto.SetupResponse{
		Secret: secret,
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}

func (s *service) Verify(ctx context.Context, appID, userID, code string) (*dto.VerifyResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentAuth), logger.Op("Verify"))

	app, err := s.resolveApp(ctx, appID)
	if err != nil {
		if errors.Is(err, ErrAppNotFound) {
			metrics.VerifyAttempts.WithLabelValues("app_not_found").Inc()
		}
		return nil, err
	}

	ua, err := s.repo.GetUserAuth(ctx, appID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			metrics.VerifyAttempts.WithLabelValues("not_enrolled").Inc()
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if ua.TOTPSecret == nil {
		metrics.VerifyAttempts.WithLabelValues("not_enrolled").Inc()
		return nil, ErrNotEnrolled
	}

	if !totp.Verify(*ua.TOTPSecret, code, s.now(), s.skew) {
		metrics.VerifyAttempts.WithLabelValues("invalid_code").Inc()
		log.Warn("verification code rejected", logger.AppID(appID), logger.UserID(userID))
		return nil, ErrInvalidCode
	}

	// One-way transition, idempotent on repeat verifications.
	if !ua.IsTOTPEnabled {
		if err := s.repo.EnableTOTP(ctx, appID, userID); err != nil {
			return nil, err
		}
	}

	tok, err := s.issueToken(ctx, appID, userID)
	if err != nil {
		return nil, err
	}
	metrics.VerifyAttempts.WithLabelValues("success").Inc()
	log.Info("verification succeeded", logger.AppID(appID), logger.UserID(userID))

	resp := &dto.VerifyResponse{Status: "success"}
	if app.CallbackURL != nil && *app.CallbackURL != "" {
		r := buildRedirectURL(*app.CallbackURL, tok)
		resp.RedirectURL = &r
	}
	return resp, nil
}

func (s *service) BindWeChat(ctx context.Context, appID, userID string) (*dto.BindWeChatResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentAuth), logger.Op("BindWeChat"))

	if _, err := s.repo.GetOrCreateUserAuth(ctx, appID, userID); err != nil {
		return nil, err
	}

	wechatID, err := s.fed.Bind(ctx, appID, userID)
	if err != nil {
		return nil, err
	}
	// Unlike the TOTP secret, rebinding overwrites the previous identifier.
	if err := s.repo.BindWeChat(ctx, appID, userID, wechatID); err != nil {
		return nil, err
	}

	log.Info("wechat bound", logger.AppID(appID), logger.UserID(userID))
	return &dto.BindWeChatResponse{Status: "success", WeChatID: wechatID}, nil
}

func (s *service) ValidateToken(ctx context.Context, tokenString string) (*dto.ValidateTokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentAuth), logger.Op("ValidateToken"))

	appID, userID, err := s.repo.RedeemExchangeToken(ctx, tokenString, s.now())
	if err != nil {
		switch {
		case errors.Is(err, core.ErrTokenNotFound):
			metrics.TokenRedemptions.WithLabelValues("not_found").Inc()
		case errors.Is(err, core.ErrTokenUsed):
			metrics.TokenRedemptions.WithLabelValues("already_used").Inc()
		case errors.Is(err, core.ErrTokenExpired):
			metrics.TokenRedemptions.WithLabelValues("expired").Inc()
		}
		return nil, err
	}

	metrics.TokenRedemptions.WithLabelValues("valid").Inc()
	log.Info("exchange token redeemed", logger.AppID(appID), logger.UserID(userID))
	return &dto.ValidateTokenResponse{Status: "valid", AppID: appID, UserID: userID}, nil
}

func (s *service) resolveApp(ctx context.Context, appID string) (*core.App, error) {
	app, err := s.apps.Get(ctx, appID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *service) issueToken(ctx context.Context, appID, userID string) (string, error) {
	tok, err := token.NewExchangeToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.repo.CreateExchangeToken(ctx, &core.ExchangeToken{
		Token:     tok,
		AppID:     appID,
		UserID:    userID,
		ExpiresAt: now.Add(s.exchangeTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	metrics.TokensIssued.Inc()
	return tok, nil
}

// buildRedirectURL appends token=<v> to the tenant callback, joining with "&"
// when the URL already carries a query string.
func buildRedirectURL(callback, tok string) string {
	sep := "?"
	if strings.Contains(callback, "?") {
		sep = "&"
	}
	return callback + sep + "token=" + url.QueryEscape(tok)
}
