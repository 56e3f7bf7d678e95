// Package admin implements the tenant-admin services.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	dto "github.com/ashpawlabs/ashpaw/internal/http/dto/admin"
	"github.com/ashpawlabs/ashpaw/internal/infra/appcache"
	"github.com/ashpawlabs/ashpaw/internal/observability/logger"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

// AppsService defines administrative operations for tenant applications.
type AppsService interface {
	Create(ctx context.Context, req dto.CreateAppRequest) (*dto.AppResponse, error)
	List(ctx context.Context) ([]dto.AppResponse, error)
	Get(ctx context.Context, appID string) (*dto.AppResponse, error)
	Update(ctx context.Context, appID string, req dto.UpdateAppRequest) (*dto.AppResponse, error)
	ListUsers(ctx context.Context, appID string) ([]dto.UserAuthResponse, error)
	ResetUser(ctx context.Context, appID, userID string) error
}

type appsService struct {
	repo core.Repository
	apps *appcache.Lookup
}

// NewAppsService creates the apps admin service.
func NewAppsService(repo core.Repository, apps *appcache.Lookup) AppsService {
	return &appsService{repo: repo, apps: apps}
}

const componentApps = "admin.apps"

func (s *appsService) Create(ctx context.Context, req dto.CreateAppRequest) (*dto.AppResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentApps), logger.Op("Create"))

	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", core.ErrInvalid)
	}

	now := time.Now().UTC()
	a := &core.App{
		ID:          uuid.NewString(),
		AppID:       uuid.NewString(),
		AppSecret:   uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateApp(ctx, a); err != nil {
		return nil, err
	}

	log.Info("application registered", logger.AppID(a.AppID), logger.String("name", a.Name))
	resp := mapAppToResponse(a)
	return &resp, nil
}

func (s *appsService) List(ctx context.Context) ([]dto.AppResponse, error) {
	apps, err := s.repo.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]dto.AppResponse, len(apps))
	for i := range apps {
		res[i] = mapAppToResponse(&apps[i])
	}
	return res, nil
}

func (s *appsService) Get(ctx context.Context, appID string) (*dto.AppResponse, error) {
	a, err := s.repo.GetAppByAppID(ctx, appID)
	if err != nil {
		return nil, err
	}
	resp := mapAppToResponse(a)
	return &resp, nil
}

func (s *appsService) Update(ctx context.Context, appID string, req dto.UpdateAppRequest) (*dto.AppResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentApps), logger.Op("Update"))

	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", core.ErrInvalid)
	}

	a, err := s.repo.UpdateApp(ctx, appID, core.AppUpdate{
		Name:        req.Name,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	// The verify path reads name/callback through the cache.
	s.apps.Invalidate(ctx, appID)

	log.Info("application updated", logger.AppID(appID))
	resp := mapAppToResponse(a)
	return &resp, nil
}

func (s *appsService) ListUsers(ctx context.Context, appID string) ([]dto.UserAuthResponse, error) {
	users, err := s.repo.ListUserAuth(ctx, appID)
	if err != nil {
		return nil, err
	}
	res := make([]dto.UserAuthResponse, len(users))
	for i, ua := range users {
		res[i] = dto.UserAuthResponse{
			AppID:           ua.AppID,
			UserID:          ua.UserID,
			IsTOTPEnabled:   ua.IsTOTPEnabled,
			IsWeChatEnabled: ua.IsWeChatEnabled,
			WeChatID:        ua.WeChatID,
			CreatedAt:       ua.CreatedAt,
			UpdatedAt:       ua.UpdatedAt,
		}
	}
	return res, nil
}

func (s *appsService) ResetUser(ctx context.Context, appID, userID string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component(componentApps), logger.Op("ResetUser"))

	// Idempotent by contract: resetting an absent record succeeds.
	if err := s.repo.DeleteUserAuth(ctx, appID, userID); err != nil {
		return err
	}
	log.Info("user 2fa reset", logger.AppID(appID), logger.UserID(userID))
	return nil
}

func mapAppToResponse(a *core.App) dto.AppResponse {
	return dto.AppResponse{
		ID:          a.ID,
		AppID:       a.AppID,
		AppSecret:   a.AppSecret,
		Name:        a.Name,
		Description: a.Description,
		CallbackURL: a.CallbackURL,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
