package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id, email or login code does not resolve
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when registering an email that is taken
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAuthFailure covers every rejected credential; callers must not tell causes apart
	ErrAuthFailure = errors.New("invalid credentials")
	// ErrConflict is returned when an operation does not fit the current state of a record
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition is returned for a status change that is not strictly forward
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyPaid is returned when settling an invoice twice
	ErrAlreadyPaid = errors.New("payment already recorded")
	// ErrForbidden is returned when a principal acts on a record it does not own
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}
