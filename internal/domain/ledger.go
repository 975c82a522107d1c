package domain

import "github.com/shopspring/decimal"

// ─── Ledger Types ───────────────────────────────────────────────────────────
// Ledger entries and balances are derived on demand from completed payments
// and the applicable scheme. Nothing here is persisted.

// LedgerEntry is the commission split of one completed payment.
type LedgerEntry struct {
	PaymentID      string          `json:"payment_id"`
	EventID        string          `json:"event_id"`
	CategoryID     string          `json:"category_id"`
	NomineeID      string          `json:"nominee_id"`
	OrganizerID    string          `json:"organizer_id"`
	SchemeID       string          `json:"scheme_id"`
	Votes          int64           `json:"votes"`
	Gross          decimal.Decimal `json:"gross"`
	Commission     decimal.Decimal `json:"commission"`
	OrganizerShare decimal.Decimal `json:"organizer_share"`
}

// Split computes commission and organizer share for a gross amount.
// The organizer share is the exact complement of the rounded commission, so
// Commission + OrganizerShare == gross with no rounding leakage.
func Split(gross decimal.Decimal, scheme Scheme) (commission, organizerShare decimal.Decimal) {
	commission = PercentOf(gross, scheme.AdminPercentage)
	return commission, gross.Sub(commission)
}

// EntryFor builds the ledger entry of a payment under a scheme.
func EntryFor(p PaymentRecord, scheme Scheme) LedgerEntry {
	commission, share := Split(p.Amount, scheme)
	return LedgerEntry{
		PaymentID:      p.ID,
		EventID:        p.EventID,
		CategoryID:     p.CategoryID,
		NomineeID:      p.NomineeID,
		OrganizerID:    p.OrganizerID,
		SchemeID:       scheme.ID,
		Votes:          p.VoteCount,
		Gross:          p.Amount,
		Commission:     commission,
		OrganizerShare: share,
	}
}

// OrganizerBalance is an organizer's withdrawable position.
//
//	Current   = max(0, Earned - Withdrawn - InFlight)
//	Available = max(0, Current - Pending)
type OrganizerBalance struct {
	OrganizerID string          `json:"organizer_id"`
	Earned      decimal.Decimal `json:"earned"`
	Withdrawn   decimal.Decimal `json:"withdrawn"`
	InFlight    decimal.Decimal `json:"in_flight"`
	Pending     decimal.Decimal `json:"pending"`
	Current     decimal.Decimal `json:"current"`
	Available   decimal.Decimal `json:"available"`
}

// NewOrganizerBalance derives Current and Available from the raw sums.
func NewOrganizerBalance(organizerID string, earned, withdrawn, inFlight, pending decimal.Decimal) OrganizerBalance {
	current := NonNegative(earned.Sub(withdrawn).Sub(inFlight))
	return OrganizerBalance{
		OrganizerID: organizerID,
		Earned:      earned,
		Withdrawn:   withdrawn,
		InFlight:    inFlight,
		Pending:     pending,
		Current:     current,
		Available:   NonNegative(current.Sub(pending)),
	}
}
