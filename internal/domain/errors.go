package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidLedger = errors.New("invalid ledger id")
)

// ValidationError reports a rejected field of a write request.
// errors.Is(err, ErrInvalidInput) holds for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Validation constants
const (
	MaxItemLength   = 255
	MaxQuantity     = 1_000_000
	DefaultLedgerID = "default"
)
