// internal/app/system/ledger/middleware.go
package ledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	ledgerstore "github.com/dalemusser/stratasite/internal/app/store/ledger"
	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists entries. ledgerstore.Store satisfies it.
type Recorder interface {
	Create(ctx context.Context, entry ledgerstore.Entry) error
}

// Config holds configuration for the ledger middleware.
type Config struct {
	Store  Recorder
	Logger *zap.Logger

	// MaxBodyPreview is the maximum number of bytes of the request body kept.
	// Set to 0 to disable body capture.
	MaxBodyPreview int

	// MinStatus is the lowest response status recorded.
	MinStatus int

	// ExcludePaths are path prefixes never recorded.
	ExcludePaths []string

	// RedactFields are JSON body keys whose values are masked in the preview.
	RedactFields []string
}

// DefaultConfig returns a Config that records failed API requests.
func DefaultConfig(store Recorder, logger *zap.Logger) Config {
	return Config{
		Store:          store,
		Logger:         logger,
		MaxBodyPreview: 500,
		MinStatus:      http.StatusBadRequest,
		ExcludePaths:   []string{"/api/media"}, // multipart bodies
		RedactFields:   []string{"password", "token"},
	}
}

// errorCap bounds how much of an error response is buffered to read its code.
const errorCap = 4 << 10

// Middleware records requests whose response status is at least
// cfg.MinStatus. Successful requests cost one wrapper and nothing else.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()

			var body []byte
			if cfg.MaxBodyPreview > 0 && r.Body != nil && r.ContentLength != 0 {
				// read at most one byte past the preview so we know whether we truncated
				head, err := io.ReadAll(io.LimitReader(r.Body, int64(cfg.MaxBodyPreview)+1))
				if err == nil {
					body = head
					r.Body = readCloser{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
				}
			}

			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK, min: cfg.MinStatus}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode < cfg.MinStatus {
				return
			}

			entry := ledgerstore.Entry{
				RequestID:          uuid.New().String(),
				ClientRequestID:    r.Header.Get("X-Request-ID"),
				Method:             r.Method,
				Path:               r.URL.Path,
				Query:              r.URL.RawQuery,
				RemoteIP:           network.ClientIP(r),
				UserAgent:          r.UserAgent(),
				Actor:              "anonymous",
				RequestBodySize:    r.ContentLength,
				RequestContentType: r.Header.Get("Content-Type"),
				StatusCode:         wrapped.statusCode,
				DurationMs:         float64(time.Since(start).Microseconds()) / 1000.0,
				StartedAt:          start.UTC(),
			}
			if _, ok := adminauth.FromContext(r.Context()); ok {
				entry.Actor = "admin"
			}
			if len(body) > 0 {
				hash := sha256.Sum256(body)
				entry.RequestBodyHash = hex.EncodeToString(hash[:])[:8]
				entry.RequestBodyPreview = preview(body, cfg.MaxBodyPreview, cfg.RedactFields)
			}
			entry.ErrorCode, entry.ErrorMessage = errorFields(wrapped.errBody.Bytes())

			// store asynchronously so the response is not held up
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := cfg.Store.Create(ctx, entry); err != nil {
					cfg.Logger.Error("failed to store request log entry",
						zap.String("request_id", entry.RequestID),
						zap.Error(err))
				}
			}()
		})
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// preview returns at most max bytes of body. JSON objects have the values of
// redacted keys masked first.
func preview(body []byte, max int, redact []string) string {
	var obj map[string]any
	if len(redact) > 0 && json.Unmarshal(body, &obj) == nil {
		for _, k := range redact {
			if _, ok := obj[k]; ok {
				obj[k] = "[redacted]"
			}
		}
		if b, err := json.Marshal(obj); err == nil {
			body = b
		}
	}
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// errorFields reads code and message from an error envelope.
func errorFields(b []byte) (string, string) {
	if len(b) == 0 {
		return "", ""
	}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return "", ""
	}
	return env.Error.Code, env.Error.Message
}

// responseWrapper captures the status code and, for recorded statuses, the
// start of the body.
type responseWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	min         int
	errBody     bytes.Buffer
}

func (rw *responseWrapper) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	if rw.statusCode >= rw.min && rw.errBody.Len() < errorCap {
		n := errorCap - rw.errBody.Len()
		if n > len(b) {
			n = len(b)
		}
		rw.errBody.Write(b[:n])
	}
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (rw *responseWrapper) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
