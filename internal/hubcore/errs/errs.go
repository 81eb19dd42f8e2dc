// Package errs provides the hub's error taxonomy: a structured error type
// with a stable code, an HTTP status for the (out of scope) presentation
// layer, and detail fields, plus the classification helpers the monitor
// framework and sync engine rely on.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a category of hub error.
type Code string

const (
	CodeIntegrationError          Code = "INTEGRATION_NOT_FOUND"
	CodeIntegrationDisabled       Code = "INTEGRATION_DISABLED"
	CodeIntegrationAttributeError Code = "INTEGRATION_ATTRIBUTE"
	CodeConfigError               Code = "CONFIG"
	CodeConnectionError           Code = "CONNECTION"
	CodeTemporaryError            Code = "TEMPORARY"
	CodeStorageError              Code = "STORAGE"
	CodeConflictError             Code = "CONFLICT"
	CodeBadInput                  Code = "BAD_INPUT"
	CodeNotFound                  Code = "NOT_FOUND"
)

// HubError is a structured error carrying a stable code, a message safe to
// surface to operators, optional details, and the wrapped cause.
type HubError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *HubError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *HubError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair and returns the same error for chaining.
func (e *HubError) WithDetails(key string, value any) *HubError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newErr(code Code, message string, status int) *HubError {
	return &HubError{Code: code, Message: message, HTTPStatus: status}
}

func wrapErr(code Code, message string, status int, err error) *HubError {
	return &HubError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IntegrationError — integration is not implemented/registered.
func IntegrationError(id string) *HubError {
	return newErr(CodeIntegrationError, "integration is not registered", http.StatusNotFound).
		WithDetails("integration_id", id)
}

// IntegrationDisabledError — integration exists but is off; recoverable by enabling.
func IntegrationDisabledError(id string) *HubError {
	return newErr(CodeIntegrationDisabled, "integration is disabled", http.StatusConflict).
		WithDetails("integration_id", id)
}

// IntegrationAttributeError — missing/invalid configuration attribute.
func IntegrationAttributeError(id, attribute, reason string) *HubError {
	return newErr(CodeIntegrationAttributeError, "invalid integration attribute", http.StatusBadRequest).
		WithDetails("integration_id", id).
		WithDetails("attribute", attribute).
		WithDetails("reason", reason)
}

// ConfigError — broader configuration failure at startup.
func ConfigError(message string, err error) *HubError {
	return wrapErr(CodeConfigError, message, http.StatusInternalServerError, err)
}

// ConnectionError — network/auth failure against a remote API.
func ConnectionError(source string, err error) *HubError {
	return wrapErr(CodeConnectionError, "connection to remote source failed", http.StatusBadGateway, err).
		WithDetails("source", source)
}

// TemporaryError — transient failure of unspecified kind; always recoverable.
func TemporaryError(message string, err error) *HubError {
	return wrapErr(CodeTemporaryError, message, http.StatusServiceUnavailable, err)
}

// StorageError — database-layer fault.
func StorageError(operation string, err error) *HubError {
	return wrapErr(CodeStorageError, "storage operation failed", http.StatusInternalServerError, err).
		WithDetails("operation", operation)
}

// ConflictError — a uniqueness or state-consistency constraint was violated.
func ConflictError(message string) *HubError {
	return newErr(CodeConflictError, message, http.StatusConflict)
}

// BadInput — caller gave us a malformed id/value.
func BadInput(field, reason string) *HubError {
	return newErr(CodeBadInput, "invalid input", http.StatusBadRequest).
		WithDetails("field", field).
		WithDetails("reason", reason)
}

// NotFound — target does not exist.
func NotFound(resource, id string) *HubError {
	return newErr(CodeNotFound, "resource not found", http.StatusNotFound).
		WithDetails("resource", resource).
		WithDetails("id", id)
}

// As extracts a *HubError from an error chain.
func As(err error) *HubError {
	var he *HubError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

// Is reports whether err is a HubError with the given code.
func Is(err error, code Code) bool {
	if he := As(err); he != nil {
		return he.Code == code
	}
	return false
}

// HTTPStatusFor returns the HTTP status carried by a HubError, defaulting to 500.
func HTTPStatusFor(err error) int {
	if he := As(err); he != nil {
		return he.HTTPStatus
	}
	return http.StatusInternalServerError
}
