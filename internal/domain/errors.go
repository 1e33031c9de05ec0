package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed request parameters. Surfaced to the
	// client before any index call is made.
	ErrValidation = errors.New("invalid request")
	// ErrUpstreamUnavailable signals a document index connection or timeout
	// failure. Clients receive a generic service error without internals.
	ErrUpstreamUnavailable = errors.New("document index unavailable")
	// ErrSourceUnavailable signals that the vocabulary source could not be
	// reached during a load.
	ErrSourceUnavailable = errors.New("vocabulary source unavailable")
	// ErrSourceEmpty signals that a vocabulary load matched zero terms.
	// Non-fatal: an empty vocabulary yields a matcher that never matches.
	ErrSourceEmpty = errors.New("vocabulary source returned no terms")
)

// ValidationError wraps ErrValidation with the violated constraint.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Constraint)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error naming the violated constraint.
func NewValidationError(field, constraint string) error {
	return &ValidationError{Field: field, Constraint: constraint}
}
