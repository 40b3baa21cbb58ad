// Package jsonutil writes JSON API responses and reads JSON request bodies.
// Error responses go through apierr.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds JSON request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// ErrBadJSON is returned by Decode for malformed bodies.
var ErrBadJSON = errors.New("request body is not valid JSON")

// JSON writes data with status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// DocResponse is the envelope for single-document writes.
type DocResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Doc     any    `json:"doc"`
}

// Doc writes {"success": true, "message": ..., "doc": ...} with status.
func Doc(w http.ResponseWriter, status int, message string, doc any) {
	JSON(w, status, DocResponse{Success: true, Message: message, Doc: doc})
}

// Decode reads one JSON value from the body into v. Bodies over
// MaxBodyBytes fail with *http.MaxBytesError; empty, malformed or
// trailing content fails with ErrBadJSON.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return err
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrBadJSON)
		default:
			return fmt.Errorf("%w: %v", ErrBadJSON, err)
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after the JSON value", ErrBadJSON)
	}
	return nil
}
