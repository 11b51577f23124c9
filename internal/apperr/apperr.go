package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Every domain error wraps exactly one of these.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// FieldError describes a problem with a single request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is a domain error with a kind, a client-facing message and optional field errors.
type Error struct {
	kind    error
	message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{kind: ErrValidation, message: message, Fields: fields}
}

func Unauthenticated(message string) *Error {
	return &Error{kind: ErrUnauthenticated, message: message}
}

func Forbidden(message string) *Error {
	return &Error{kind: ErrForbidden, message: message}
}

func NotFound(message string) *Error {
	return &Error{kind: ErrNotFound, message: message}
}

func Conflict(message string) *Error {
	return &Error{kind: ErrConflict, message: message}
}

// StatusCode maps an error to its HTTP status. Unknown errors are 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text of a domain error, or ok=false for unexpected errors.
func Message(err error) (string, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.message, true
	}
	return "", false
}

// Fields returns the field errors attached to a validation error, if any.
func Fields(err error) []FieldError {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
