// internal/app/features/errors/errors.go
package errors

import (
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// Handler provides the router-level error responses. API paths get the JSON
// error envelope; everything else gets an HTML page.
type Handler struct {
	api *apierr.Writer
}

// NewHandler creates a new error Handler.
func NewHandler(api *apierr.Writer) *Handler {
	return &Handler{api: api}
}

// IsAPIPath reports whether path is served by a JSON API.
func IsAPIPath(path string) bool {
	for _, p := range []string{"/api", "/admin/api"} {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Forbidden renders the 403 page. It is also the CSRF failure handler.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	if IsAPIPath(r.URL.Path) {
		h.api.Write(w, r, apierr.New(apierr.CodeForbidden, "Forbidden"))
		return
	}
	h.page(w, r, http.StatusForbidden, "errors/forbidden", "Access Denied")
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsAPIPath(r.URL.Path) {
		h.api.Write(w, r, apierr.NotFound("Route"))
		return
	}
	h.page(w, r, http.StatusNotFound, "errors/not_found", "Not Found")
}

// MethodNotAllowed answers a known path with an unsupported method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if IsAPIPath(r.URL.Path) {
		h.api.Write(w, r, apierr.New(apierr.CodeMethodNotAllowed, "Method not allowed"))
		return
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// InternalError renders the 500 page.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	if IsAPIPath(r.URL.Path) {
		h.api.Write(w, r, apierr.New(apierr.CodeInternal, "Internal server error"))
		return
	}
	h.page(w, r, http.StatusInternalServerError, "errors/internal", "Server Error")
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name, title string) {
	vm := viewdata.New(r, nil, title)
	w.WriteHeader(status)
	templates.Render(w, r, name, vm)
}
