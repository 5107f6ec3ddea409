// Package domain defines core types, interfaces, and errors for group
// membership and project key distribution.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AccessDeniedError indicates a failed membership precondition, e.g. a
// principal that is not part of the owning organization.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input or a violated precondition that
// requires caller (or administrator) action, such as missing key material.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate membership, a group
// still linked to a project).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ExternalProviderError indicates a failure talking to the external directory
// provider. It is surfaced to the caller and never retried within a call,
// since remote state may have changed.
type ExternalProviderError struct {
	Message string
	Err     error
}

func (e *ExternalProviderError) Error() string { return e.Message }

func (e *ExternalProviderError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrExternalProvider wraps a directory provider failure with a
// user-actionable message.
func ErrExternalProvider(err error, format string, args ...interface{}) *ExternalProviderError {
	return &ExternalProviderError{Message: fmt.Sprintf(format, args...), Err: err}
}
