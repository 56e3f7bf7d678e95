package router

import (
	"github.com/go-chi/chi/v5"

	authctrl "github.com/ashpawlabs/ashpaw/internal/http/controllers/auth"
)

func registerAuthRoutes(r chi.Router, c *authctrl.AuthController) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/status/{app_id}/{user_id}", c.Status)
		r.Post("/setup/{app_id}/{user_id}", c.Setup)
		r.Post("/verify/{app_id}/{user_id}", c.Verify)
		r.Post("/bind-wechat/{app_id}/{user_id}", c.BindWeChat)
		r.Post("/validate-token", c.ValidateToken)
	})
}
