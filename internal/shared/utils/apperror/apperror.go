package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can branch on outcome instead of
// matching message strings.
type Kind int

const (
	// KindInternal is an unexpected failure (persistence errors, bugs)
	KindInternal Kind = iota
	// KindValidation is a malformed or incomplete request
	KindValidation
	// KindNotFound is a missing entity
	KindNotFound
	// KindConflict is an expected business conflict: slot busy, duplicate
	// pending payment, illegal state transition. Never retried.
	KindConflict
	// KindUpstreamTransient is a gateway timeout or lock-store outage;
	// safe to retry or leave for the expiry sweep to reconcile.
	KindUpstreamTransient
	// KindUpstreamRejected is a definite upstream rejection (MAC mismatch,
	// gateway failure code). Terminal, never retried automatically.
	KindUpstreamRejected
)

// Error carries a kind alongside the message and wrapped cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error with the given kind wrapping a cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound creates a not-found error
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Conflict creates a business-conflict error
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// UpstreamTransient creates a retryable upstream error
func UpstreamTransient(message string, err error) *Error {
	return Wrap(KindUpstreamTransient, message, err)
}

// UpstreamRejected creates a terminal upstream rejection
func UpstreamRejected(message string) *Error {
	return New(KindUpstreamRejected, message)
}

// Internal creates an internal error wrapping a cause
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf extracts the kind from an error chain, defaulting to internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// HTTPStatus maps an error kind to the HTTP status the controller layer
// should respond with
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamTransient:
		return http.StatusBadGateway
	case KindUpstreamRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
