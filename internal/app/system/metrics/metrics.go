// Package metrics exposes Prometheus collectors for HTTP traffic, uploads,
// form intake, rate limiting, and email notifications.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stratasite"

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled background job runs by outcome.",
		},
		[]string{"job", "result"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Scheduled background job run time in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"job"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "HTTP requests currently being served.",
		},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Uploaded files by outcome.",
		},
		[]string{"result"},
	)

	uploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "stored_bytes",
			Help:      "Size of stored upload blobs after transformation.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
	)

	imageTransformTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "image_transforms_total",
			Help:      "Image transform attempts by outcome (ok, fallback, skipped).",
		},
		[]string{"result"},
	)

	intakeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Form submissions by form and outcome.",
		},
		[]string{"form", "result"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		},
		[]string{"scope"},
	)

	notifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Notification emails by kind and outcome.",
		},
		[]string{"kind", "result"},
	)

	taskTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynq",
			Name:      "tasks_processed_total",
			Help:      "Queued tasks processed.",
		},
		[]string{"task_type"},
	)

	taskFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asynq",
			Name:      "tasks_failed_total",
			Help:      "Queued tasks that returned an error.",
		},
		[]string{"task_type"},
	)

	integrityFindings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "integrity",
			Name:      "dangling_references",
			Help:      "Dangling references found by the last integrity sweep.",
		},
	)
)

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records latency and counts per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		requestDuration.With(labels).Observe(time.Since(start).Seconds())
		requestTotal.With(labels).Inc()
	})
}

// Upload records one upload outcome ("ok", "rejected", "storage_error", "record_error").
func Upload(result string, storedBytes int64) {
	uploadsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		uploadBytes.Observe(float64(storedBytes))
	}
}

// ImageTransform records one transform outcome.
func ImageTransform(result string) {
	imageTransformTotal.WithLabelValues(result).Inc()
}

// Intake records a form submission outcome.
func Intake(form, result string) {
	intakeTotal.WithLabelValues(form, result).Inc()
}

// RateLimited records a rejected request.
func RateLimited(scope string) {
	rateLimitedTotal.WithLabelValues(scope).Inc()
}

// Notify records an email dispatch outcome.
func Notify(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notifyTotal.WithLabelValues(kind, result).Inc()
}

// IntegrityFindings sets the dangling reference gauge.
func IntegrityFindings(n int) {
	integrityFindings.Set(float64(n))
}

// BackgroundJob records one run of a scheduled job.
func BackgroundJob(name string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	jobRuns.WithLabelValues(name, result).Inc()
	jobDuration.WithLabelValues(name).Observe(d.Seconds())
}

// AsynqMiddleware records queued task outcomes.
func AsynqMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			err := next.ProcessTask(ctx, task)
			if err != nil {
				taskFailed.WithLabelValues(task.Type()).Inc()
			}
			taskTotal.WithLabelValues(task.Type()).Inc()
			return err
		})
	}
}
