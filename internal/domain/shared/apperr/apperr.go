// Package apperr defines the error kinds shared by every layer. Domain
// packages wrap these sentinels so the transport can map them without
// knowing the concrete error types.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"rentacar/internal/domain/shared/daterange"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindUnauthenticated Kind = "unauthenticated"
	KindTransport       Kind = "transport"
	KindInternal        Kind = "internal"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTransport       = errors.New("transport failure")
)

// Violation is a single broken booking or input rule.
type Violation struct {
	Rule    string           `json:"rule"`
	Message string           `json:"message"`
	Dates   []daterange.Date `json:"dates,omitempty"`
}

type ValidationError struct {
	Violations []Violation
}

// Invalid builds a ValidationError with one violation.
func Invalid(rule, message string, dates ...daterange.Date) *ValidationError {
	return &ValidationError{Violations: []Violation{{Rule: rule, Message: message, Dates: dates}}}
}

func (e *ValidationError) Add(rule, message string, dates ...daterange.Date) {
	e.Violations = append(e.Violations, Violation{Rule: rule, Message: message, Dates: dates})
}

// OrNil returns nil when nothing was violated.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// HasRule reports whether a violation with the given rule was collected.
func (e *ValidationError) HasRule(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// ConflictError reports a write that lost against the stored state.
type ConflictError struct {
	Resource string
	ID       string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	if e.Expected != "" || e.Actual != "" {
		return fmt.Sprintf("conflict: %s %s expected %q but found %q", e.Resource, e.ID, e.Expected, e.Actual)
	}
	return fmt.Sprintf("conflict: %s %s was modified concurrently", e.Resource, e.ID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFound wraps ErrNotFound with the resource identity.
func NotFound(resource, id string) error {
	return fmt.Errorf("%s %q: %w", resource, id, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// TransportError wraps a failed call to a store or broker.
type TransportError struct {
	Op  string
	Err error
}

func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindInternal
	}
}
