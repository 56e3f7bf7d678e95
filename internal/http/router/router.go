// Package router defines the HTTP routes of the service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminctrl "github.com/ashpawlabs/ashpaw/internal/http/controllers/admin"
	authctrl "github.com/ashpawlabs/ashpaw/internal/http/controllers/auth"
	"github.com/ashpawlabs/ashpaw/internal/http/helpers"
	mw "github.com/ashpawlabs/ashpaw/internal/http/middlewares"
	adminsvc "github.com/ashpawlabs/ashpaw/internal/http/services/admin"
	authsvc "github.com/ashpawlabs/ashpaw/internal/http/services/auth"
	"github.com/ashpawlabs/ashpaw/internal/store/core"
)

// Deps contains the dependencies for the router.
type Deps struct {
	Repo core.Repository
	Apps adminsvc.AppsService
	Auth authsvc.Service
	// Gatherer backs /metrics; nil falls back to the default registry.
	Gatherer prometheus.Gatherer
}

// New wires the full route table and middleware chain.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithMetrics())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteError(w, helpers.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteError(w, helpers.ErrNotFound.WithDetail("method not allowed"))
	})

	r.Get("/healthz", healthHandler(deps.Repo))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	registerAdminRoutes(r, adminctrl.NewAppsController(deps.Apps))
	registerAuthRoutes(r, authctrl.NewAuthController(deps.Auth))

	return r
}

func healthHandler(repo core.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Ping(r.Context()); err != nil {
			helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
