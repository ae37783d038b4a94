// Package bfferrors defines the typed error taxonomy shared by the token
// manager, the request executor and the HTTP layer. Every failure that crosses
// a component boundary is one of these kinds, carrying a human-readable
// message and diagnostic details instead of a raw stack trace.
package bfferrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds.
const (
	// KindTimeout is returned when a downstream did not answer within the deadline.
	KindTimeout = "timeout"

	// KindUnauthenticated is returned on a downstream 401 or when the
	// credential authority rejected the login.
	KindUnauthenticated = "unauthenticated"

	// KindForbidden is returned on a downstream 403.
	KindForbidden = "forbidden"

	// KindNotFound is returned on a downstream 404.
	KindNotFound = "not_found"

	// KindRateLimited is returned on a downstream 429.
	KindRateLimited = "rate_limited"

	// KindValidation is returned on any other downstream 4xx.
	KindValidation = "validation_error"

	// KindServiceUnavailable is returned on a downstream 5xx.
	KindServiceUnavailable = "service_unavailable"

	// KindIntegration is returned on a network-level failure with no response.
	KindIntegration = "integration_error"

	// KindInternal is returned for unclassified failures.
	KindInternal = "internal_error"
)

// statusForKind maps each kind to the HTTP status the BFF's own API answers
// with when the error reaches the boundary.
var statusForKind = map[string]int{
	KindTimeout:            http.StatusGatewayTimeout,
	KindUnauthenticated:    http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindRateLimited:        http.StatusTooManyRequests,
	KindValidation:         http.StatusBadRequest,
	KindServiceUnavailable: http.StatusServiceUnavailable,
	KindIntegration:        http.StatusBadGateway,
	KindInternal:           http.StatusInternalServerError,
}

// Error represents a classified failure in the BFF.
type Error struct {
	// Kind is the error classification.
	Kind string

	// Message is a human-readable description safe to return to callers.
	Message string

	// Status is the HTTP status the BFF maps this error to.
	Status int

	// Details carries diagnostic data (downstream status, truncated body,
	// request URL). Suppressed outside development environments.
	Details any

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind with optional diagnostic details.
func New(kind, message string, details any) *Error {
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Status:  status,
		Details: details,
	}
}

// Timeout creates a timeout error.
func Timeout(message string, details any) *Error {
	return New(KindTimeout, message, details)
}

// Unauthenticated creates an unauthenticated error.
func Unauthenticated(message string, details any) *Error {
	return New(KindUnauthenticated, message, details)
}

// Forbidden creates a forbidden error.
func Forbidden(message string, details any) *Error {
	return New(KindForbidden, message, details)
}

// NotFound creates a not-found error.
func NotFound(message string, details any) *Error {
	return New(KindNotFound, message, details)
}

// RateLimited creates a rate-limited error.
func RateLimited(message string, details any) *Error {
	return New(KindRateLimited, message, details)
}

// Validation creates a validation error.
func Validation(message string, details any) *Error {
	return New(KindValidation, message, details)
}

// ServiceUnavailable creates a service-unavailable error.
func ServiceUnavailable(message string, details any) *Error {
	return New(KindServiceUnavailable, message, details)
}

// Integration creates an integration error.
func Integration(message string, details any) *Error {
	return New(KindIntegration, message, details)
}

// Internal creates an internal error.
func Internal(message string, details any) *Error {
	return New(KindInternal, message, details)
}

// WithCause attaches an underlying error and returns the same *Error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// FromStatus selects the error kind for a downstream 4xx response.
// Statuses outside [400, 500) fall through to a validation error as well;
// callers are expected to handle 5xx separately.
func FromStatus(status int, message string, details any) *Error {
	switch status {
	case http.StatusUnauthorized:
		return Unauthenticated(message, details)
	case http.StatusForbidden:
		return Forbidden(message, details)
	case http.StatusNotFound:
		return NotFound(message, details)
	case http.StatusTooManyRequests:
		return RateLimited(message, details)
	default:
		return Validation(message, details)
	}
}

// KindOf returns the kind of a classified error, or KindInternal for any
// other error value.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind string) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
