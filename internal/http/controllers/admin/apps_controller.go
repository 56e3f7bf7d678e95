// Package admin contains the tenant-admin controllers.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/ashpawlabs/ashpaw/internal/http/dto/admin"
	"github.com/ashpawlabs/ashpaw/internal/http/helpers"
	svc "github.com/ashpawlabs/ashpaw/internal/http/services/admin"
	"github.com/ashpawlabs/ashpaw/internal/observability/logger"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

// AppsController handles the /apps routes.
type AppsController struct {
	service svc.AppsService
}

// NewAppsController creates a new apps controller.
func NewAppsController(service svc.AppsService) *AppsController {
	return &AppsController{service: service}
}

// CreateApp handles POST /apps
func (c *AppsController) CreateApp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CreateApp"))

	var req dto.CreateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	created, err := c.service.Create(ctx, req)
	if err != nil {
		log.Error("create failed", logger.Err(err))
		helpers.WriteError(w, mapAdminError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, created)
}

// ListApps handles GET /apps
func (c *AppsController) ListApps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ListApps"))

	apps, err := c.service.List(ctx)
	if err != nil {
		log.Error("list failed", logger.Err(err))
		helpers.WriteError(w, mapAdminError(err))
		return
	}
	if apps == nil {
		apps = []dto.AppResponse{}
	}

	helpers.WriteJSON(w, http.StatusOK, apps)
}

// GetApp handles GET /apps/{app_id}
func (c *AppsController) GetApp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	app, err := c.service.Get(ctx, chi.URLParam(r, "app_id"))
	if err != nil {
		helpers.WriteError(w, mapAdminError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, app)
}

// UpdateApp handles PUT /apps/{app_id}
func (c *AppsController) UpdateApp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UpdateApp"))

	var req dto.UpdateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteError(w, helpers.ErrInvalidJSON)
		return
	}

	updated, err := c.service.Update(ctx, chi.URLParam(r, "app_id"), req)
	if err != nil {
		log.Error("update failed", logger.Err(err))
		helpers.WriteError(w, mapAdminError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, updated)
}

// ListUsers handles GET /apps/{app_id}/users
func (c *AppsController) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ListUsers"))

	users, err := c.service.ListUsers(ctx, chi.URLParam(r, "app_id"))
	if err != nil {
		log.Error("list users failed", logger.Err(err))
		helpers.WriteError(w, mapAdminError(err))
		return
	}
	if users == nil {
		users = []dto.UserAuthResponse{}
	}

	helpers.WriteJSON(w, http.StatusOK, users)
}

// ResetUser handles DELETE /apps/{app_id}/users/{user_id}
func (c *AppsController) ResetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ResetUser"))

	err := c.service.ResetUser(ctx, chi.URLParam(r, "app_id"), chi.URLParam(r, "user_id"))
	if err != nil {
		log.Error("reset failed", logger.Err(err))
		helpers.WriteError(w, mapAdminError(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ResetUserResponse{Message: "User 2FA reset successful"})
}

func mapAdminError(err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return helpers.ErrAppNotFound
	case errors.Is(err, core.ErrInvalid):
		return helpers.ErrBadRequest.WithDetail(err.Error())
	case errors.Is(err, core.ErrConflict):
		return helpers.ErrBadRequest.WithDetail("already exists")
	default:
		return helpers.ErrInternalServerError
	}
}
