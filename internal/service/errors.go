package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when a user touches something they do not own.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is returned when the task or category does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes a rejected form field. The message is safe to
// show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
