package testutil

import (
	"context"
	"net/http"
)

// CSRFToken is the token WithCSRFToken installs.
const CSRFToken = "test-csrf-token"

// gorilla/csrf stores the masked token under this plain string key.
const csrfContextKey = "gorilla.csrf.Token"

// WithCSRFToken makes csrf.Token(r) return CSRFToken without running the
// csrf middleware, so handlers that render forms can be tested directly.
func WithCSRFToken(r *http.Request) *http.Request {
	//nolint:staticcheck // must match the library's own key type
	return r.WithContext(context.WithValue(r.Context(), csrfContextKey, CSRFToken))
}
