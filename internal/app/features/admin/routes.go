package admin

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the admin API router, mounted at /admin/api.
func Routes(h *Handler, auth *adminauth.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Require(h.errs))

	r.Get("/collections", h.Collections)
	r.Get("/site-settings", h.GetSettings)
	r.Put("/site-settings", h.PutSettings)
	r.Get("/request-log", h.RequestLog)
	r.Get("/integrity", h.Integrity)
	r.Post("/integrity/sweep", h.Sweep)

	r.Route("/{collection}", func(cr chi.Router) {
		cr.Get("/", h.List)
		cr.Post("/", h.Create)
		cr.Post("/actions/{action}", h.Action)
		cr.Get("/{id}", h.Get)
		cr.Patch("/{id}", h.Update)
		cr.Delete("/{id}", h.Delete)
	})
	return r
}

// UserRoutes returns the login router, mounted at /api/users.
func UserRoutes(u *Users, auth *adminauth.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Post("/login", u.Login)
	r.Post("/logout", u.Logout)
	r.With(auth.Require(u.errs)).Get("/me", u.Me)
	return r
}
