package resumes

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the resumes router, mounted at /api/resumes.
func Routes(h *Handler, limiter ratelimit.Limiter, rule ratelimit.Rule, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.With(ratelimit.Middleware(limiter, "resume", rule, h.errs, logger)).Post("/", h.Create)
	return r
}
