package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Scheme Types ───────────────────────────────────────────────────────────
// A scheme fixes the commission split and vote pricing for one event, or for
// the whole platform when EventID is empty.

// SchemeStatus is the lifecycle state of a scheme.
type SchemeStatus string

const (
	SchemeDraft     SchemeStatus = "draft"
	SchemeActive    SchemeStatus = "active"
	SchemeSuspended SchemeStatus = "suspended"
	SchemeEnded     SchemeStatus = "ended"
)

// Valid reports whether s is a known status.
func (s SchemeStatus) Valid() bool {
	switch s {
	case SchemeDraft, SchemeActive, SchemeSuspended, SchemeEnded:
		return true
	}
	return false
}

// CanTransition reports whether a scheme may move from s to next.
// Ended is terminal.
func (s SchemeStatus) CanTransition(next SchemeStatus) bool {
	switch s {
	case SchemeDraft:
		return next == SchemeActive || next == SchemeEnded
	case SchemeActive:
		return next == SchemeSuspended || next == SchemeEnded
	case SchemeSuspended:
		return next == SchemeActive || next == SchemeEnded
	}
	return false
}

// Scheme is a commission and pricing rule set.
//
// The organizer percentage is never stored: it is always 100 minus
// AdminPercentage, so the two can never disagree.
type Scheme struct {
	ID                     string          `json:"id"`
	EventID                string          `json:"event_id,omitempty"`
	VotePrice              decimal.Decimal `json:"vote_price"`
	AdminPercentage        decimal.Decimal `json:"admin_percentage"`
	BulkDiscountPercentage decimal.Decimal `json:"bulk_discount_percentage"`
	MinBulkQuantity        int             `json:"min_bulk_quantity"`
	Status                 SchemeStatus    `json:"status"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// IsDefault reports whether the scheme is the platform-wide default.
func (s Scheme) IsDefault() bool { return s.EventID == "" }

// OrganizerPercentage is the complement of AdminPercentage.
func (s Scheme) OrganizerPercentage() decimal.Decimal {
	return hundred.Sub(s.AdminPercentage)
}

// SetAdminPercentage validates pct and applies it. The organizer share
// follows automatically.
func (s *Scheme) SetAdminPercentage(pct decimal.Decimal) error {
	if !ValidPercentage(pct) {
		return ErrInvalidPercentage
	}
	s.AdminPercentage = pct
	return nil
}

// Validate checks the pricing fields of a scheme.
func (s Scheme) Validate() error {
	if s.VotePrice.IsNegative() {
		return Invalid("vote_price", "must not be negative")
	}
	if !ValidPercentage(s.AdminPercentage) {
		return ErrInvalidPercentage
	}
	if !ValidPercentage(s.BulkDiscountPercentage) {
		return ErrInvalidPercentage
	}
	if s.MinBulkQuantity < 0 {
		return Invalid("min_bulk_quantity", "must not be negative")
	}
	if !s.Status.Valid() {
		return Invalid("status", "unknown scheme status "+string(s.Status))
	}
	return nil
}

// BulkDiscountApplies reports whether a unit-priced purchase of votes earns
// the scheme's bulk discount.
func (s Scheme) BulkDiscountApplies(votes int64) bool {
	return s.MinBulkQuantity > 0 && votes >= int64(s.MinBulkQuantity) && s.BulkDiscountPercentage.IsPositive()
}
