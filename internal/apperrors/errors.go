package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service. Handlers map these to HTTP
// status codes in one place.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// ValidationError reports a client-supplied value that fails a business
// rule. It surfaces as a 400 at the HTTP boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// GatewayError reports that the payment provider rejected or could not
// complete a request. StatusCode is zero for transport-level failures
// (timeouts, connection errors).
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("payment gateway %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PaymentProcessingError is returned by checkout when the session request
// failed after the order had been written and the compensating delete ran.
// The client may retry the identical checkout request.
type PaymentProcessingError struct {
	Err error
}

func (e *PaymentProcessingError) Error() string {
	return fmt.Sprintf("payment processing failed: %v", e.Err)
}

func (e *PaymentProcessingError) Unwrap() error { return e.Err }
