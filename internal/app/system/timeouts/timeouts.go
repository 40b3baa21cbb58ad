// Package timeouts holds the process-wide deadlines for blocking work that
// is not bounded by an HTTP request: dependency pings, the data loads behind
// a site page, email delivery, and background job runs.
//
// Values are set once at startup from configuration (Configure) and read
// concurrently afterwards.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure is called.
const (
	DefaultPing     = 2 * time.Second
	DefaultPageLoad = 5 * time.Second
	DefaultNotify   = 30 * time.Second
	DefaultJob      = 10 * time.Minute
)

// Config carries the configurable deadlines. Zero fields keep the current
// value.
type Config struct {
	Ping     time.Duration
	PageLoad time.Duration
	Notify   time.Duration
	Job      time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{
		Ping:     DefaultPing,
		PageLoad: DefaultPageLoad,
		Notify:   DefaultNotify,
		Job:      DefaultJob,
	}
}

// Configure applies the positive fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.PageLoad > 0 {
		cur.PageLoad = cfg.PageLoad
	}
	if cfg.Notify > 0 {
		cur.Notify = cfg.Notify
	}
	if cfg.Job > 0 {
		cur.Job = cfg.Job
	}
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active deadlines.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Ping bounds health and readiness probes of MongoDB and Redis.
func Ping() time.Duration { return Current().Ping }

// PageLoad bounds the settings and content reads behind one site page.
func PageLoad() time.Duration { return Current().PageLoad }

// Notify bounds one SMTP delivery.
func Notify() time.Duration { return Current().Notify }

// Job bounds one run of a scheduled background job.
func Job() time.Duration { return Current().Job }

// WithTimeout is context.WithTimeout whose cancel func logs a warning naming
// operation when the deadline was what ended the work.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded && parent.Err() == nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
