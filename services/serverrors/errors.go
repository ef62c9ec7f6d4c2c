// Package serverrors defines the error kinds returned by the services so the
// HTTP layer can map them to status codes.
package serverrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Error carries a caller-facing message and unwraps to its kind.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) *Error {
	return newError(ErrNotFound, "%s %v not found", entity, id)
}

func Forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newError(ErrInvalidState, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, format, args...)
}

// InvalidRecurrence wraps a rule parse error.
func InvalidRecurrence(err error) *Error {
	return &Error{Kind: ErrInvalidRecurrence, Message: err.Error(), Err: err}
}

// WaitlistedError is the Conflict returned when a full class put the member
// on the waitlist instead of booking them.
type WaitlistedError struct {
	ScheduleID any
	Position   int
}

func (e *WaitlistedError) Error() string {
	return fmt.Sprintf("class schedule %v is full, added to waitlist at position %d", e.ScheduleID, e.Position)
}

func (e *WaitlistedError) Unwrap() error { return ErrConflict }
