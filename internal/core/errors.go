package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error classes. Concrete errors wrap one of these so callers can classify
// them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected request")
	ErrConflict           = errors.New("conflicting status report")
	ErrInternal           = errors.New("internal error")
)

var (
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrBookingNotFound    = fmt.Errorf("%w: booking not found", ErrValidation)
	ErrEmailRequired      = fmt.Errorf("%w: email is required", ErrValidation)
	ErrReferenceRequired  = fmt.Errorf("%w: reference is required", ErrValidation)
	ErrInvalidSignature   = fmt.Errorf("%w: invalid webhook signature", ErrValidation)
	ErrPaymentNotFound    = fmt.Errorf("%w: payment not found", ErrNotFound)
	ErrDuplicateReference = fmt.Errorf("%w: merchant reference already exists", ErrInternal)
)

// NewValidationError builds an error classified as ErrValidation.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// GatewayError describes a failed exchange with the payment provider. Kind is
// one of ErrGatewayUnavailable, ErrGatewayRejected or ErrNotFound.
type GatewayError struct {
	Kind       error
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("chapa %s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Details returns the provider response body for inclusion in error responses.
func (e *GatewayError) Details() any {
	if len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}
