// Package ratelimit limits requests per client and endpoint.
//
// A Limiter answers "may this key make another request in scope?" Three
// backends are available: MongoDB fixed windows (shared across instances,
// the default), Redis fixed windows, and an in-process token bucket for
// single-instance or test deployments.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"go.uber.org/zap"
)

// Rule is N requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) String() string { return fmt.Sprintf("%d/%s", r.Limit, r.Window) }

// ParseRule parses "N/duration", e.g. "5/15m" or "10/1h".
func ParseRule(s string) (Rule, error) {
	n, d, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rule{}, fmt.Errorf("rate rule %q: want N/duration", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil || limit <= 0 {
		return Rule{}, fmt.Errorf("rate rule %q: bad count", s)
	}
	window, err := time.ParseDuration(strings.TrimSpace(d))
	if err != nil || window <= 0 {
		return Rule{}, fmt.Errorf("rate rule %q: bad window", s)
	}
	return Rule{Limit: limit, Window: window}, nil
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether key may make another request under rule.
type Limiter interface {
	Allow(ctx context.Context, scope, key string, rule Rule) (Decision, error)
}

// Middleware enforces rule for scope, keyed by client IP. Limiter errors are
// logged and the request is let through.
func Middleware(l Limiter, scope string, rule Rule, errs *apierr.Writer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := network.ClientIP(r)
			d, err := l.Allow(r.Context(), scope, key, rule)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request",
					zap.String("scope", scope), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				metrics.RateLimited(scope)
				errs.Write(w, r, apierr.New(apierr.CodeRateLimited,
					fmt.Sprintf("Too many requests. Try again in %d seconds.", secs)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// windowDecision converts a fixed-window count into a Decision.
func windowDecision(count int, end time.Time, rule Rule, now time.Time) Decision {
	if count > rule.Limit {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: end.Sub(now)}
	}
	return Decision{Allowed: true, Remaining: rule.Limit - count}
}
