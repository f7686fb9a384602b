package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist for the household.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a required identifier or parameter is missing or malformed.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RequireHousehold returns a ValidationError when id is empty.
func RequireHousehold(id string) error {
	if id == "" {
		return &ValidationError{Field: "householdId"}
	}
	return nil
}
