package models

import (
	"errors"
	"fmt"
)

// ErrorKind represents standardized engine error codes surfaced to callers
type ErrorKind string

const (
	ErrorKindProductNotFound      ErrorKind = "PRODUCT_NOT_FOUND"
	ErrorKindReservationNotFound  ErrorKind = "RESERVATION_NOT_FOUND"
	ErrorKindInsufficientStock    ErrorKind = "INSUFFICIENT_STOCK"
	ErrorKindInvalidTransition    ErrorKind = "INVALID_TRANSITION"
	ErrorKindAlreadyTerminal      ErrorKind = "ALREADY_TERMINAL"
	ErrorKindRenewalLimitExceeded ErrorKind = "RENEWAL_LIMIT_EXCEEDED"
	ErrorKindStockInconsistency   ErrorKind = "STOCK_INCONSISTENCY"
	ErrorKindDuplicateRequest     ErrorKind = "DUPLICATE_REQUEST"
	ErrorKindValidationError      ErrorKind = "VALIDATION_ERROR"
	ErrorKindInternalError        ErrorKind = "INTERNAL_ERROR"
)

// Sentinel errors for the engine's error taxonomy. Services wrap these with
// context via fmt.Errorf("%w"); handlers match with errors.Is.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidTransition   = errors.New("invalid transition")
	// ErrAlreadyTerminal is a benign no-op signal, not a hard failure:
	// cancelling an already-terminal hold must never corrupt stock.
	ErrAlreadyTerminal      = errors.New("reservation already terminal")
	ErrRenewalLimitExceeded = errors.New("renewal limit exceeded")
	// ErrStockInconsistency is an internal invariant violation, surfaced
	// loudly: more stock restored than was ever removed.
	ErrStockInconsistency = errors.New("stock inconsistency detected")
	// ErrDuplicateRequest signals a write that collided with the unique
	// idempotency key; the caller replays the stored record instead.
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrValidation       = errors.New("invalid request")
)

// KindForError maps an engine error to its ErrorKind code.
func KindForError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return ErrorKindProductNotFound
	case errors.Is(err, ErrReservationNotFound):
		return ErrorKindReservationNotFound
	case errors.Is(err, ErrInsufficientStock):
		return ErrorKindInsufficientStock
	case errors.Is(err, ErrInvalidTransition):
		return ErrorKindInvalidTransition
	case errors.Is(err, ErrAlreadyTerminal):
		return ErrorKindAlreadyTerminal
	case errors.Is(err, ErrRenewalLimitExceeded):
		return ErrorKindRenewalLimitExceeded
	case errors.Is(err, ErrStockInconsistency):
		return ErrorKindStockInconsistency
	case errors.Is(err, ErrDuplicateRequest):
		return ErrorKindDuplicateRequest
	case errors.Is(err, ErrValidation):
		return ErrorKindValidationError
	default:
		return ErrorKindInternalError
	}
}

// TransitionError carries the status that made an operation invalid.
type TransitionError struct {
	Operation string
	From      ReservationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not valid from status %s", e.Operation, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NewTransitionError builds the error for an operation attempted from a
// status it cannot leave.
func NewTransitionError(operation string, from ReservationStatus) *TransitionError {
	return &TransitionError{Operation: operation, From: from}
}
