package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Withdrawal Types ───────────────────────────────────────────────────────
// pending → processing → completed
// pending → rejected
// Completed and rejected are terminal.

// WithdrawalStatus is the state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

// CanTransition reports whether a request may move from s to next.
func (s WithdrawalStatus) CanTransition(next WithdrawalStatus) bool {
	switch s {
	case WithdrawalPending:
		return next == WithdrawalProcessing || next == WithdrawalRejected
	case WithdrawalProcessing:
		return next == WithdrawalCompleted
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalCompleted || s == WithdrawalRejected
}

// WithdrawalMethod is the payout rail.
type WithdrawalMethod string

const (
	WithdrawMobileMoney WithdrawalMethod = "mobile_money"
	WithdrawBank        WithdrawalMethod = "bank"
)

// Destination identifies where a payout is sent. Provider is the mobile
// network for mobile money and the bank name for bank transfers.
type Destination struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Provider      string `json:"provider"`
}

// WithdrawalRequest is an organizer's request to be paid out.
type WithdrawalRequest struct {
	ID              string           `json:"id"`
	OrganizerID     string           `json:"organizer_id"`
	Amount          decimal.Decimal  `json:"amount"`
	Method          WithdrawalMethod `json:"method"`
	Destination     Destination      `json:"destination"`
	Status          WithdrawalStatus `json:"status"`
	ProcessedBy     string           `json:"processed_by,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Fee             decimal.Decimal  `json:"fee"`
	NetAmount       decimal.Decimal  `json:"net_amount"`
	PayoutReference string           `json:"payout_reference,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// ValidateWithdrawal checks the organizer-supplied fields of a new request.
func ValidateWithdrawal(organizerID string, amount decimal.Decimal, method WithdrawalMethod, dest Destination) error {
	if strings.TrimSpace(organizerID) == "" {
		return Invalid("organizer_id", "is required")
	}
	if !amount.IsPositive() {
		return Invalid("amount", "must be positive")
	}
	if !amount.Equal(RoundCurrency(amount)) {
		return Invalid("amount", "must not have more than two decimal places")
	}
	switch method {
	case WithdrawMobileMoney:
		if strings.TrimSpace(dest.AccountNumber) == "" {
			return Invalid("destination.account_number", "mobile number is required")
		}
		if strings.TrimSpace(dest.Provider) == "" {
			return Invalid("destination.provider", "mobile network is required")
		}
	case WithdrawBank:
		if strings.TrimSpace(dest.AccountNumber) == "" {
			return Invalid("destination.account_number", "account number is required")
		}
		if strings.TrimSpace(dest.Provider) == "" {
			return Invalid("destination.provider", "bank name is required")
		}
		if strings.TrimSpace(dest.AccountName) == "" {
			return Invalid("destination.account_name", "account name is required")
		}
	default:
		return Invalid("method", "must be mobile_money or bank")
	}
	return nil
}

// WithdrawalFee splits a payout amount into the platform fee and the net
// amount sent to the organizer.
func WithdrawalFee(amount, commissionRate decimal.Decimal) (fee, net decimal.Decimal) {
	fee = PercentOf(amount, commissionRate)
	return fee, amount.Sub(fee)
}

// WithdrawalFilter narrows a request listing. Zero values match all.
type WithdrawalFilter struct {
	OrganizerID string
	Status      WithdrawalStatus
	Limit       int
	Offset      int
}

// WithdrawalTotals sums request amounts by status for one organizer.
type WithdrawalTotals struct {
	Pending    decimal.Decimal
	Processing decimal.Decimal
	Completed  decimal.Decimal
}
