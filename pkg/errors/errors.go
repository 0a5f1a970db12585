package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// ErrScopeResolution indicates a roster, home or company lookup failed.
	// Callers receive an empty roster, never a partially populated one.
	ErrScopeResolution = New("SCOPE_RESOLUTION", http.StatusBadGateway, "failed to resolve roster scope")

	// ErrAssignmentConflict is returned when at least one assignment recipient
	// already holds a live completion of the course. The accompanying payload
	// carries the fresh/conflicting partition so the caller can resolve it.
	ErrAssignmentConflict = New("ASSIGNMENT_CONFLICT", http.StatusConflict, "one or more recipients already hold this course")

	// ErrDuplicateRecord maps the storage-level unique violation raised when two
	// writers race to create a live record for the same person and course.
	ErrDuplicateRecord = New("DUPLICATE_RECORD", http.StatusConflict, "a live record already exists for this person and course")

	// ErrNoRecipients is returned when assignment scope resolution yields nobody.
	ErrNoRecipients = New("NO_RECIPIENTS", http.StatusBadRequest, "no recipients found")

	// ErrPendingImmutable guards pending records: they can only be superseded
	// by a completion, never deleted directly.
	ErrPendingImmutable = New("PENDING_IMMUTABLE", http.StatusConflict, "pending records cannot be deleted, only completed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsRetryable reports whether the caller may safely retry the failed write.
func IsRetryable(err error) bool {
	e := FromError(err)
	return e != nil && e.Code == ErrDuplicateRecord.Code
}
