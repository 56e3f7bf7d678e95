// Package auth contains the end-user facing controllers.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/ashpawlabs/ashpaw/internal/http/dto/auth"
	"github.com/ashpawlabs/ashpaw/internal/http/helpers"
	svc "github.com/ashpawlabs/ashpaw/internal/http/services/auth"
	"github.com/ashpawlabs/ashpaw/internal/observability/logger"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

// AuthController handles the /auth routes.
type AuthController struct {
	service svc.Service
}

// NewAuthController creates a new auth controller.
func NewAuthController(service svc.Service) *AuthController {
	return &AuthController{service: service}
}

// Status handles GET /auth/status/{app_id}/{user_id}
func (c *AuthController) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := c.service.Status(ctx, chi.URLParam(r, "app_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		helpers.WriteError(w, mapAuthError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, st)
}

// Setup handles POST /auth/setup/{app_id}/{user_id}
func (c *AuthController) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Setup"))

	res, err := c.service.Setup(ctx, chi.URLParam(r, "app_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		if !errors.Is(err, svc.ErrAppNotFound) {
			log.Error("setup failed", logger.Err(err))
		}
		helpers.WriteError(w, mapAuthError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, res)
}

// Verify handles POST /auth/verify/{app_id}/{user_id}
func (c *AuthController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Verify"))

	var req dto.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	if req.Code == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("code is required"))
		return
	}

	res, err := c.service.Verify(ctx, chi.URLParam(r, "app_id"), chi.URLParam(r, "user_id"), req.Code)
	if err != nil {
		if isInternal(err) {
			log.Error("verify failed", logger.Err(err))
		}
		helpers.WriteError(w, mapAuthError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, res)
}

// BindWeChat handles POST /auth/bind-wechat/{app_id}/{user_id}
func (c *AuthController) BindWeChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("BindWeChat"))

	res, err := c.service.BindWeChat(ctx, chi.URLParam(r, "app_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		log.Error("bind failed", logger.Err(err))
		helpers.WriteError(w, mapAuthError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, res)
}

// ValidateToken handles POST /auth/validate-token. This is the only endpoint
// meant for server-to-server callers.
func (c *AuthController) ValidateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ValidateToken"))

	var req dto.ValidateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}
	if req.Token == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("token is required"))
		return
	}

	res, err := c.service.ValidateToken(ctx, req.Token)
	if err != nil {
		if isInternal(err) {
			log.Error("validate failed", logger.Err(err))
		}
		helpers.WriteError(w, mapAuthError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, res)
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, svc.ErrAppNotFound):
		return helpers.ErrAppNotFound
	case errors.Is(err, svc.ErrNotEnrolled):
		return helpers.ErrUserNotEnrolled
	case errors.Is(err, svc.ErrInvalidCode):
		return helpers.ErrInvalidCode
	case errors.Is(err, core.ErrTokenNotFound):
		return helpers.ErrTokenNotFound
	case errors.Is(err, core.ErrTokenUsed):
		return helpers.ErrTokenAlreadyUsed
	case errors.Is(err, core.ErrTokenExpired):
		return helpers.ErrTokenExpired
	default:
		return helpers.ErrInternalServerError
	}
}

// isInternal reports whether the error is unexpected (worth an error log)
// rather than a normal client failure.
func isInternal(err error) bool {
	for _, known := range []error{
		svc.ErrAppNotFound, svc.ErrNotEnrolled, svc.ErrInvalidCode,
		core.ErrTokenNotFound, core.ErrTokenUsed, core.ErrTokenExpired,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}
