package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// SchemeStore abstracts persistent scheme storage.
type SchemeStore interface {
	InsertScheme(ctx context.Context, s Scheme) error
	UpdateScheme(ctx context.Context, s Scheme) error
	DeleteScheme(ctx context.Context, id string) error
	GetScheme(ctx context.Context, id string) (Scheme, error)
	ListSchemes(ctx context.Context) ([]Scheme, error)

	// GetEventScheme returns the live (non-ended) scheme of an event, or
	// ErrNotFound.
	GetEventScheme(ctx context.Context, eventID string) (Scheme, error)

	// GetDefaultScheme returns the live platform-wide scheme, or ErrNotFound.
	GetDefaultScheme(ctx context.Context) (Scheme, error)

	// SchemeReferenced reports whether payment records exist that the
	// scheme prices (its event's payments, or any payment for a default).
	SchemeReferenced(ctx context.Context, s Scheme) (bool, error)
}

// PaymentSource supplies completed payment facts to the ledger.
type PaymentSource interface {
	ListCompletedPayments(ctx context.Context, f PaymentFilter) ([]PaymentRecord, error)
}

// WithdrawalStore abstracts persistent withdrawal request storage.
type WithdrawalStore interface {
	InsertWithdrawal(ctx context.Context, w WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id string) (WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, f WithdrawalFilter) ([]WithdrawalRequest, error)
	WithdrawalTotals(ctx context.Context, organizerID string) (WithdrawalTotals, error)

	// TransitionWithdrawal persists w only if the stored status still equals
	// from. It returns ErrInvalidState (wrapped) when the row moved on, and
	// ErrNotFound when it does not exist.
	TransitionWithdrawal(ctx context.Context, from WithdrawalStatus, w WithdrawalRequest) error

	// RecordPayoutReference stores the gateway reference on a processing
	// request that has none yet. Any other row state is ErrInvalidState.
	RecordPayoutReference(ctx context.Context, id, reference string, at time.Time) error
}
