// Package apierr defines the error codes returned to API clients and the single
// place that turns a Go error into a JSON error response.
//
// Handlers return (or pass to Writer.Write) either an *Error built with the
// constructors below or any other error. Unclassified errors become
// INTERNAL_ERROR; the underlying text is only sent to the client outside
// production.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeDuplicate          Code = "DUPLICATE_ERROR"
	CodeInvalidID          Code = "INVALID_ID"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeForbidden          Code = "FORBIDDEN"
	CodeMethodNotAllowed   Code = "METHOD_NOT_ALLOWED"
	CodeFileTooLarge       Code = "FILE_TOO_LARGE"
	CodeUpload             Code = "UPLOAD_ERROR"
	CodeAlreadySubscribed  Code = "ALREADY_SUBSCRIBED"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeValidation:         http.StatusBadRequest,
	CodeInvalidID:          http.StatusBadRequest,
	CodeDuplicate:          http.StatusConflict,
	CodeAlreadySubscribed:  http.StatusConflict,
	CodeNotFound:           http.StatusNotFound,
	CodeInvalidToken:       http.StatusUnauthorized,
	CodeTokenExpired:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	CodeFileTooLarge:       http.StatusRequestEntityTooLarge,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeUpload:             http.StatusInternalServerError,
	CodeInternal:           http.StatusInternalServerError,
}

// Status returns the HTTP status for c.
func (c Code) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is an API error with a code, a client-safe message, optional
// field-level details, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int { return e.Code.Status() }

// Extensions exposes the code to GraphQL error responses.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": string(e.Code)}
	if len(e.Details) > 0 {
		ext["details"] = e.Details
	}
	return ext
}

// New returns an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an error with the given code that keeps err as its cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation reports one message per failing field.
func Validation(details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: "Validation failed", Details: details}
}

// Field is a Validation error for a single field.
func Field(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

// NotFound reports a missing document of the given kind.
func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

// InvalidID reports a malformed identifier.
func InvalidID(value string) *Error {
	return &Error{Code: CodeInvalidID, Message: fmt.Sprintf("invalid id %q", value)}
}

// Duplicate reports a unique-constraint collision.
func Duplicate(message string, err error) *Error {
	return &Error{Code: CodeDuplicate, Message: message, Err: err}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "An unexpected error occurred", Err: err}
}

// From classifies any error into an *Error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var tooBig *http.MaxBytesError
	switch {
	case mongo.IsDuplicateKeyError(err):
		return Duplicate("A record with the same unique value already exists", err)
	case errors.Is(err, models.ErrUnpublish):
		return &Error{Code: CodeValidation, Message: "Validation failed", Details: map[string]string{"status": "A published document cannot move back to draft."}, Err: err}
	case errors.Is(err, models.ErrAlreadySubscribed):
		return &Error{Code: CodeAlreadySubscribed, Message: "This email is already subscribed", Err: err}
	case errors.Is(err, jsonutil.ErrBadJSON):
		return &Error{Code: CodeValidation, Message: "Request body is not valid JSON", Err: err}
	case errors.Is(err, mongo.ErrNoDocuments):
		return &Error{Code: CodeNotFound, Message: "Not found", Err: err}
	case errors.As(err, &tooBig):
		return &Error{Code: CodeFileTooLarge, Message: fmt.Sprintf("Request body exceeds %d bytes", tooBig.Limit), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeInternal, Message: "The request timed out", Err: err}
	}
	return Internal(err)
}
