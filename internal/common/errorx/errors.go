package errorx

import (
	"fmt"
	"net/http"
)

// Category classifies an error for HTTP mapping and operator triage.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryNotFound       Category = "not_found"
	CategoryConflict       Category = "conflict"
	CategoryConnection     Category = "connection"
	CategoryProcess        Category = "process"
	CategoryInternal       Category = "internal"
)

// APIError is a structured error surfaced at the operation boundary.
// Raw errors never reach the HTTP layer directly; handlers wrap them here
// so every failure carries a stable code and a human-readable message.
type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   Category       `json:"category"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	cause      error
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// WithDetail adds a detail entry to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newAPIError(code, message string, category Category, status int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Category:   category,
		HTTPStatus: status,
	}
}

// ErrInvalidRequest is returned when request binding or validation fails.
func ErrInvalidRequest(message string) *APIError {
	return newAPIError("INVALID_REQUEST", message, CategoryValidation, http.StatusBadRequest)
}

// ErrAuthenticationFailed is returned for bad credentials or invalid tokens.
func ErrAuthenticationFailed(message string) *APIError {
	return newAPIError("AUTHENTICATION_FAILED", message, CategoryAuthentication, http.StatusUnauthorized)
}

// ErrPermissionDenied is returned when a permission check denies an action.
func ErrPermissionDenied(username, action, database string) *APIError {
	return newAPIError("PERMISSION_DENIED",
		fmt.Sprintf("user %q is not allowed to %s on %q", username, action, database),
		CategoryAuthorization, http.StatusForbidden)
}

// ErrNotFound is returned when a file, user or table does not exist.
func ErrNotFound(what string) *APIError {
	return newAPIError("NOT_FOUND", what+" not found", CategoryNotFound, http.StatusNotFound)
}

// ErrConflict is returned on duplicate username/email constraint violations.
func ErrConflict(message string) *APIError {
	return newAPIError("CONFLICT", message, CategoryConflict, http.StatusConflict)
}

// ErrConnection is returned when the MySQL server cannot be reached after
// the single automatic reconnect attempt.
func ErrConnection(message string) *APIError {
	return newAPIError("CONNECTION_ERROR", message, CategoryConnection, http.StatusServiceUnavailable)
}

// ErrProcess is returned when an external dump/load process fails.
func ErrProcess(message string) *APIError {
	return newAPIError("PROCESS_FAILED", message, CategoryProcess, http.StatusBadGateway)
}

// ErrInternal is the catch-all for unexpected failures.
func ErrInternal(message string) *APIError {
	return newAPIError("INTERNAL_ERROR", message, CategoryInternal, http.StatusInternalServerError)
}
