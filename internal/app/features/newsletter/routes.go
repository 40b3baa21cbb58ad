package newsletter

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the newsletter router, mounted at /api/newsletter.
// Both methods share the per-IP newsletter limit.
func Routes(h *Handler, limiter ratelimit.Limiter, rule ratelimit.Rule, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(ratelimit.Middleware(limiter, "newsletter", rule, h.errs, logger))
	r.Post("/", h.Subscribe)
	r.Delete("/{email}", h.Unsubscribe)
	return r
}
