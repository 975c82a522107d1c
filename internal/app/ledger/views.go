package ledger

import (
	"time"

	"github.com/votecast/backoffice/internal/domain"
)

// ─── Report Views ───────────────────────────────────────────────────────────

// ViewNames lists the rollup groupings in display order.
var ViewNames = []string{"categories", "nominees", "events", "organizers"}

var views = map[string]func(*Ledger) []Rollup{
	"categories": (*Ledger).Categories,
	"nominees":   (*Ledger).Nominees,
	"events":     (*Ledger).Events,
	"organizers": (*Ledger).Organizers,
}

// View returns the rollups of l grouped by name.
func View(l *Ledger, name string) ([]Rollup, bool) {
	fn, ok := views[name]
	if !ok {
		return nil, false
	}
	return fn(l), true
}

// FilterInput is the textual form of a report filter, as read from query
// parameters or flags.
type FilterInput struct {
	EventID     string
	OrganizerID string
	From        string
	To          string
}

// ParseFilter builds a PaymentFilter. Dates are RFC 3339 or YYYY-MM-DD;
// From is inclusive and To exclusive.
func ParseFilter(in FilterInput) (domain.PaymentFilter, error) {
	f := domain.PaymentFilter{EventID: in.EventID, OrganizerID: in.OrganizerID}
	var err error
	if f.From, err = ParseDate("from", in.From); err != nil {
		return f, err
	}
	if f.To, err = ParseDate("to", in.To); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return f, domain.Invalid("to", "must be after from")
	}
	return f, nil
}

// ParseDate accepts RFC 3339 timestamps or calendar dates in UTC. The empty
// string is the zero time.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, domain.Invalid(field, "must be RFC 3339 or YYYY-MM-DD")
}
