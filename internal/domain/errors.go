package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency. Detail types below
// carry the specific reason and still match their sentinel via errors.Is.

var (
	// Scheme errors
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	ErrNoActiveScheme    = errors.New("no active commission scheme")
	ErrSchemeExists      = errors.New("a live scheme already exists for this scope")

	// Withdrawal errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidState        = errors.New("invalid withdrawal state transition")

	// Payment errors
	ErrPaymentImmutable = errors.New("completed payment records are immutable")

	// Generic
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientBalanceError carries the amounts behind a rejected withdrawal.
type InsufficientBalanceError struct {
	OrganizerID string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: organizer %s requested %s, available %s",
		e.OrganizerID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// InvalidStateError reports an action attempted from the wrong state.
type InvalidStateError struct {
	RequestID string
	From      WithdrawalStatus
	To        WithdrawalStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid withdrawal state transition: request %s is %s, cannot move to %s",
		e.RequestID, e.From, e.To)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// NoActiveSchemeError names the event that could not be resolved.
type NoActiveSchemeError struct {
	EventID string
}

func (e *NoActiveSchemeError) Error() string {
	if e.EventID == "" {
		return "no active commission scheme: no global default configured"
	}
	return fmt.Sprintf("no active commission scheme for event %s and no global default", e.EventID)
}

func (e *NoActiveSchemeError) Is(target error) bool { return target == ErrNoActiveScheme }
