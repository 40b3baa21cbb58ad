package media

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the media router, mounted at /api/media.
func Routes(h *Handler, auth *adminauth.Authenticator, limiter ratelimit.Limiter, rule ratelimit.Rule, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Optional)

	r.With(ratelimit.Middleware(limiter, "media", rule, h.errs, logger)).Post("/", h.Upload)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Require(h.errs))
		pr.Get("/", h.List)
		pr.Delete("/{id}", h.Delete)
		pr.Post("/bulk-delete", h.BulkDelete)
	})
	return r
}
