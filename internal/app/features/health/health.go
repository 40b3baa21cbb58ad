// Package health serves liveness and readiness probes.
//
// Endpoints:
//   - GET /health       - Every dependency, with per-service status
//   - GET /health/ready - Required dependencies only
//   - GET /health/live  - Process is up
//   - GET /ready, /live - Root aliases for orchestrators
package health

import (
	"context"
	"net/http"
	"sync"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check is one dependency probe. Optional checks degrade /health but do not
// fail readiness.
type Check struct {
	Name     string
	Optional bool
	Ping     func(ctx context.Context) error
}

// MongoCheck pings the primary.
func MongoCheck(client *mongo.Client) Check {
	return Check{Name: "mongodb", Ping: func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}}
}

// RedisCheck pings Redis. Redis backs rate limiting and the mail queue, so
// the site keeps serving pages without it.
func RedisCheck(client *redis.Client) Check {
	return Check{Name: "redis", Optional: true, Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// Handler provides health check endpoints.
type Handler struct {
	checks []Check
	logger *zap.Logger
}

// NewHandler creates a health Handler over checks.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{checks: checks, logger: logger}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready and /live directly on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
}

// run pings every check concurrently and returns name -> error.
func (h *Handler) run(ctx context.Context, requiredOnly bool) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]error, len(h.checks))
	)
	for _, c := range h.checks {
		if requiredOnly && c.Optional {
			continue
		}
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			err := c.Ping(ctx)
			mu.Lock()
			out[c.Name] = err
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return out
}

// Check reports every dependency. A failed required check answers 503; a
// failed optional check reports "degraded" with 200.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	results := h.run(r.Context(), false)
	resp := Response{Status: "ok", Services: make(map[string]string, len(results))}
	status := http.StatusOK

	for _, c := range h.checks {
		err := results[c.Name]
		if err == nil {
			resp.Services[c.Name] = "ok"
			continue
		}
		resp.Services[c.Name] = "unavailable"
		h.logger.Warn("health check failed", zap.String("service", c.Name), zap.Error(err))
		if c.Optional {
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready answers 503 until every required dependency responds.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	for name, err := range h.run(r.Context(), true) {
		if err != nil {
			h.logger.Warn("readiness check failed", zap.String("service", name), zap.Error(err))
			jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
			return
		}
	}
	jsonutil.JSON(w, http.StatusOK, Response{Status: "ready"})
}

// Live always answers 200 while the process can serve HTTP.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.JSON(w, http.StatusOK, Response{Status: "alive"})
}
