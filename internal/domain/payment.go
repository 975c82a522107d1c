package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Payment Types ──────────────────────────────────────────────────────────
// Payment records are facts handed over by the payment processor. The core
// reads them and never rewrites a completed one.

// PaymentStatus is the processor-reported state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted || s == PaymentFailed
}

// PaymentKind distinguishes unit votes from bulk package purchases.
type PaymentKind string

const (
	PaymentVote PaymentKind = "vote"
	PaymentBulk PaymentKind = "bulk"
)

// PaymentMethod is how the voter paid.
type PaymentMethod string

const (
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodCard        PaymentMethod = "card"
	MethodBank        PaymentMethod = "bank"
	MethodUSSD        PaymentMethod = "ussd"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMobileMoney, MethodCard, MethodBank, MethodUSSD:
		return true
	}
	return false
}

// PaymentRecord is one vote or bulk-vote purchase.
type PaymentRecord struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id"`
	CategoryID  string          `json:"category_id"`
	NomineeID   string          `json:"nominee_id"`
	OrganizerID string          `json:"organizer_id,omitempty"` // derived from the event
	Kind        PaymentKind     `json:"kind"`
	PackageID   string          `json:"package_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	VoteCount   int64           `json:"vote_count"`
	Method      PaymentMethod   `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	Status      PaymentStatus   `json:"status"`
	PaidAt      time.Time       `json:"paid_at"`
}

// Completed reports whether the record participates in the ledger.
func (p PaymentRecord) Completed() bool { return p.Status == PaymentCompleted }

// Validate checks a record before it is accepted from the processor.
func (p PaymentRecord) Validate() error {
	switch {
	case p.EventID == "":
		return Invalid("event_id", "is required")
	case p.CategoryID == "":
		return Invalid("category_id", "is required")
	case p.NomineeID == "":
		return Invalid("nominee_id", "is required")
	case p.Amount.IsNegative():
		return Invalid("amount", "must not be negative")
	case !p.Amount.Equal(RoundCurrency(p.Amount)):
		return Invalid("amount", "must not have more than two decimal places")
	case p.VoteCount <= 0:
		return Invalid("vote_count", "must be positive")
	case !p.Method.Valid():
		return Invalid("method", "unknown payment method "+string(p.Method))
	case !p.Status.Valid():
		return Invalid("status", "unknown payment status "+string(p.Status))
	case p.Kind != PaymentVote && p.Kind != PaymentBulk:
		return Invalid("kind", "must be vote or bulk")
	case p.Kind == PaymentBulk && p.PackageID == "":
		return Invalid("package_id", "is required for bulk purchases")
	}
	return nil
}

// PaymentFilter narrows a completed-payment listing. Zero values match all.
type PaymentFilter struct {
	EventID     string
	OrganizerID string
	From        time.Time // inclusive
	To          time.Time // exclusive
}

// ─── Catalog Types ──────────────────────────────────────────────────────────
// Categories belong to exactly one event, nominees to exactly one category,
// and bulk packages to exactly one event and nominee.

// Event is an award event owned by one organizer.
type Event struct {
	ID          string `json:"id"`
	OrganizerID string `json:"organizer_id"`
	Name        string `json:"name"`
}

// Category groups nominees within an event.
type Category struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Name    string `json:"name"`
}

// Nominee is a vote target within a category.
type Nominee struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

// BulkPackage sells a fixed number of votes at a fixed price.
type BulkPackage struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"`
	CategoryID string          `json:"category_id"`
	NomineeID  string          `json:"nominee_id"`
	Name       string          `json:"name"`
	VoteCount  int64           `json:"vote_count"`
	Price      decimal.Decimal `json:"price"`
	Active     bool            `json:"active"`
}

// EffectiveVotePrice is price per vote, for display only.
func (p BulkPackage) EffectiveVotePrice() decimal.Decimal {
	if p.VoteCount <= 0 {
		return zero
	}
	return p.Price.DivRound(decimal.NewFromInt(p.VoteCount), 4)
}
