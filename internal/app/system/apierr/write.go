package apierr

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Body is the JSON error envelope.
type Body struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	Stack   string            `json:"stack,omitempty"`
}

// Writer renders errors as JSON. ShowDetail should be false in production.
type Writer struct {
	Logger     *zap.Logger
	ShowDetail bool
}

// NewWriter returns a Writer; detail is shown for every env except "prod".
func NewWriter(logger *zap.Logger, env string) *Writer {
	return &Writer{Logger: logger, ShowDetail: env != "prod"}
}

// Write classifies err and writes the response. 5xx errors are logged with
// the full cause; 4xx errors are logged at debug level.
func (wr *Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	ae := From(err)
	status := ae.Status()

	fields := []zap.Field{
		zap.String("code", string(ae.Code)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if ae.Err != nil {
		fields = append(fields, zap.Error(ae.Err))
	}
	if status >= 500 {
		wr.Logger.Error("request failed", fields...)
	} else {
		wr.Logger.Debug("request rejected", fields...)
	}

	body := Body{Error: ErrorBody{Code: ae.Code, Message: ae.Message, Details: ae.Details}}
	if wr.ShowDetail && ae.Err != nil {
		body.Error.Detail = ae.Err.Error()
	}
	writeJSON(w, status, body)
}

// Recoverer converts panics into INTERNAL_ERROR responses. The stack trace is
// logged and, outside production, included in the response.
func (wr *Writer) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := string(debug.Stack())
			wr.Logger.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("stack", stack),
			)
			body := Body{Error: ErrorBody{Code: CodeInternal, Message: "An unexpected error occurred"}}
			if wr.ShowDetail {
				body.Error.Stack = stack
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
