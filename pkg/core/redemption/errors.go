package redemption

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks deal terms that violate a structural constraint.
	ErrInvalidInput = errors.New("invalid deal structure")

	// ErrInvalidRange marks a requested redemption rate or grid outside [0, 100].
	ErrInvalidRange = errors.New("redemption rate out of range")
)

// ValidationError describes the first rejected field. Kind is ErrInvalidInput or ErrInvalidRange.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Kind   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %s %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s %s (got %s)", e.Kind, e.Field, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalidInput(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Kind: ErrInvalidInput}
}

func invalidRange(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Kind: ErrInvalidRange}
}
