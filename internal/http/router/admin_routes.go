package router

import (
	"github.com/go-chi/chi/v5"

	adminctrl "github.com/ashpawlabs/ashpaw/internal/http/controllers/admin"
)

// registerAdminRoutes mounts the tenant management surface. These routes are
// meant to sit behind deployment-level access controls, not end users.
func registerAdminRoutes(r chi.Router, c *adminctrl.AppsController) {
	r.Route("/apps", func(r chi.Router) {
		r.Post("/", c.CreateApp)
		r.Get("/", c.ListApps)
		r.Get("/{app_id}", c.GetApp)
		r.Put("/{app_id}", c.UpdateApp)
		r.Get("/{app_id}/users", c.ListUsers)
		r.Delete("/{app_id}/users/{user_id}", c.ResetUser)
	})
}
