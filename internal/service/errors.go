package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/coderr/marketplace-api/internal/domain"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the principal may not perform the action
	ErrForbidden = errors.New("permission denied")

	// ErrConflict is returned when a request contradicts stored state
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when no principal is attached to the request
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMethodNotAllowed is returned when a full replace is used where only
	// partial updates are accepted
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// ReasonError attaches a client-facing reason to a sentinel error
type ReasonError struct {
	Err    error
	Reason string
}

func (e *ReasonError) Error() string {
	return e.Reason
}

func (e *ReasonError) Unwrap() error {
	return e.Err
}

// Forbidden returns ErrForbidden with a reason
func Forbidden(reason string) error {
	return &ReasonError{Err: ErrForbidden, Reason: reason}
}

// NotFound returns ErrNotFound with a reason
func NotFound(reason string) error {
	return &ReasonError{Err: ErrNotFound, Reason: reason}
}

// Conflict returns ErrConflict with a reason
func Conflict(reason string) error {
	return &ReasonError{Err: ErrConflict, Reason: reason}
}

// errOnlyPatch rejects full replaces of orders and reviews
var errOnlyPatch = &ReasonError{Err: ErrMethodNotAllowed, Reason: "Only PATCH is allowed."}

// ValidationError carries per-field messages and messages that are not tied
// to a single field
type ValidationError struct {
	Fields   map[string]string
	NonField []string
}

// NewFieldError returns a validation error for one field
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NewNonFieldError returns a validation error not tied to a field
func NewNonFieldError(message string) *ValidationError {
	return &ValidationError{NonField: []string{message}}
}

// Add records a field message, keeping the first one per field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any message was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0 || len(e.NonField) > 0
}

// ErrorMap flattens the error into the APIError errors map
func (e *ValidationError) ErrorMap() map[string]string {
	out := make(map[string]string, len(e.Fields)+1)
	for field, msg := range e.Fields {
		out[field] = msg
	}
	if len(e.NonField) > 0 {
		out[domain.NonFieldErrorsKey] = strings.Join(e.NonField, " ")
	}
	return out
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields)+len(e.NonField))
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	parts = append(parts, e.NonField...)
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps a *ValidationError from err
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
