// Package apperrors defines the error taxonomy shared by the sync core.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAlreadyExists is returned by the gateway when a create was rejected by
// the existence precondition. For event creation this means an earlier
// attempt already landed.
var ErrAlreadyExists = errors.New("document already exists")

// ValidationError reports bad input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a failed remote call.
// StatusCode is zero when the request never got a response.
type NetworkError struct {
	Err        error
	Op         string
	Status     string
	StatusCode int
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: remote error %d %s: %v", e.Op, e.StatusCode, e.Status, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the call may succeed.
func (e *NetworkError) Temporary() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// SyncError wraps a push/pull/merge failure. Pushed and Pulled carry the
// counters reached before the failure.
type SyncError struct {
	Err    error
	Op     string
	Pushed int
	Pulled int
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// MergeConflictError is reserved for conflicts last-write-wins cannot settle.
type MergeConflictError struct {
	EntityKind string
	EntityID   string
	Reason     string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict on %s %s: %s", e.EntityKind, e.EntityID, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTemporary reports whether err carries a retriable NetworkError.
func IsTemporary(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Temporary()
	}
	return false
}
