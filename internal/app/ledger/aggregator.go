// Package ledger derives revenue rollups and organizer balances from
// completed payments and the commission scheme of each event.
package ledger

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
	"github.com/votecast/backoffice/internal/infra/observability"
)

// SchemeResolver resolves the schemes of many events in one consistent read.
type SchemeResolver interface {
	Snapshot(ctx context.Context, eventIDs []string) (map[string]domain.Scheme, error)
}

// RollupKey identifies a rollup group. Fields outside the grouping are empty.
type RollupKey struct {
	OrganizerID string `json:"organizer_id,omitempty"`
	EventID     string `json:"event_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	NomineeID   string `json:"nominee_id,omitempty"`
}

// Rollup sums the ledger entries of one group.
type Rollup struct {
	RollupKey
	Payments       int             `json:"payments"`
	Votes          int64           `json:"votes"`
	Gross          decimal.Decimal `json:"gross"`
	Commission     decimal.Decimal `json:"commission"`
	OrganizerShare decimal.Decimal `json:"organizer_share"`
}

func (r *Rollup) add(other Rollup) {
	r.Payments += other.Payments
	r.Votes += other.Votes
	r.Gross = r.Gross.Add(other.Gross)
	r.Commission = r.Commission.Add(other.Commission)
	r.OrganizerShare = r.OrganizerShare.Add(other.OrganizerShare)
}

func rollupOf(key RollupKey, e domain.LedgerEntry) Rollup {
	return Rollup{
		RollupKey:      key,
		Payments:       1,
		Votes:          e.Votes,
		Gross:          e.Gross,
		Commission:     e.Commission,
		OrganizerShare: e.OrganizerShare,
	}
}

// Ledger accumulates entries into category, nominee, event and organizer
// groups. The zero value is not usable; call NewLedger.
type Ledger struct {
	categories map[RollupKey]*Rollup
	nominees   map[RollupKey]*Rollup
	events     map[RollupKey]*Rollup
	organizers map[RollupKey]*Rollup
	total      Rollup
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		categories: make(map[RollupKey]*Rollup),
		nominees:   make(map[RollupKey]*Rollup),
		events:     make(map[RollupKey]*Rollup),
		organizers: make(map[RollupKey]*Rollup),
	}
}

// Add records one ledger entry.
func (l *Ledger) Add(e domain.LedgerEntry) {
	l.addTo(l.categories, RollupKey{OrganizerID: e.OrganizerID, EventID: e.EventID, CategoryID: e.CategoryID}, e)
	l.addTo(l.nominees, RollupKey{OrganizerID: e.OrganizerID, EventID: e.EventID, CategoryID: e.CategoryID, NomineeID: e.NomineeID}, e)
	l.addTo(l.events, RollupKey{OrganizerID: e.OrganizerID, EventID: e.EventID}, e)
	l.addTo(l.organizers, RollupKey{OrganizerID: e.OrganizerID}, e)
	l.total.add(rollupOf(RollupKey{}, e))
}

func (l *Ledger) addTo(m map[RollupKey]*Rollup, key RollupKey, e domain.LedgerEntry) {
	mergeInto(m, key, rollupOf(key, e))
}

func mergeInto(m map[RollupKey]*Rollup, key RollupKey, r Rollup) {
	if cur, ok := m[key]; ok {
		cur.add(r)
		return
	}
	r.RollupKey = key
	m[key] = &r
}

// Merge adds every group of other into l. Merging partial ledgers yields
// the same totals as aggregating all of their records in one pass.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	for _, pair := range []struct{ dst, src map[RollupKey]*Rollup }{
		{l.categories, other.categories},
		{l.nominees, other.nominees},
		{l.events, other.events},
		{l.organizers, other.organizers},
	} {
		for k, r := range pair.src {
			mergeInto(pair.dst, k, *r)
		}
	}
	l.total.add(other.total)
}

// Categories returns per-(event, category) rollups.
func (l *Ledger) Categories() []Rollup { return sorted(l.categories) }

// Nominees returns per-nominee rollups.
func (l *Ledger) Nominees() []Rollup { return sorted(l.nominees) }

// Events returns per-event rollups.
func (l *Ledger) Events() []Rollup { return sorted(l.events) }

// Organizers returns per-organizer rollups.
func (l *Ledger) Organizers() []Rollup { return sorted(l.organizers) }

// Organizer returns one organizer's rollup, zero if it has no entries.
func (l *Ledger) Organizer(organizerID string) Rollup {
	key := RollupKey{OrganizerID: organizerID}
	if r, ok := l.organizers[key]; ok {
		return *r
	}
	return Rollup{RollupKey: key}
}

// Total returns the grand total over every entry.
func (l *Ledger) Total() Rollup { return l.total }

func sorted(m map[RollupKey]*Rollup) []Rollup {
	out := make([]Rollup, 0, len(m))
	for _, r := range m {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b Rollup) int {
		return cmp.Or(
			cmp.Compare(a.OrganizerID, b.OrganizerID),
			cmp.Compare(a.EventID, b.EventID),
			cmp.Compare(a.CategoryID, b.CategoryID),
			cmp.Compare(a.NomineeID, b.NomineeID),
		)
	})
	return out
}

// ─── Aggregation ────────────────────────────────────────────────────────────

// Aggregate splits every completed record under its event's scheme.
// Records that are not completed are dropped before any scheme lookup.
// Schemes are resolved once per call, so a concurrent scheme update is
// seen either fully or not at all.
func Aggregate(ctx context.Context, records []domain.PaymentRecord, resolver SchemeResolver) (*Ledger, error) {
	completed := make([]domain.PaymentRecord, 0, len(records))
	var eventIDs []string
	seen := make(map[string]struct{})
	for _, p := range records {
		if !p.Completed() {
			continue
		}
		completed = append(completed, p)
		if _, ok := seen[p.EventID]; !ok {
			seen[p.EventID] = struct{}{}
			eventIDs = append(eventIDs, p.EventID)
		}
	}
	observability.LedgerPaymentsAggregated.WithLabelValues("excluded").Add(float64(len(records) - len(completed)))

	l := NewLedger()
	if len(completed) == 0 {
		observability.LedgerAggregations.WithLabelValues("ok").Inc()
		return l, nil
	}

	schemes, err := resolver.Snapshot(ctx, eventIDs)
	if err != nil {
		observability.LedgerAggregations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("snapshot schemes: %w", err)
	}
	for _, p := range completed {
		s, ok := schemes[p.EventID]
		if !ok {
			observability.LedgerAggregations.WithLabelValues("error").Inc()
			return nil, &domain.NoActiveSchemeError{EventID: p.EventID}
		}
		l.Add(domain.EntryFor(p, s))
	}
	observability.LedgerPaymentsAggregated.WithLabelValues("included").Add(float64(len(completed)))
	observability.LedgerAggregations.WithLabelValues("ok").Inc()
	return l, nil
}

// ─── Service ────────────────────────────────────────────────────────────────

// Service reads payments from a source and aggregates them.
type Service struct {
	payments domain.PaymentSource
	schemes  SchemeResolver
	logger   *slog.Logger
}

// NewService creates a ledger service.
func NewService(payments domain.PaymentSource, schemes SchemeResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{payments: payments, schemes: schemes, logger: logger.With("component", "ledger")}
}

// Report aggregates the completed payments matching f.
func (s *Service) Report(ctx context.Context, f domain.PaymentFilter) (*Ledger, error) {
	records, err := s.payments.ListCompletedPayments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list completed payments: %w", err)
	}
	l, err := Aggregate(ctx, records, s.schemes)
	if err != nil {
		s.logger.Warn("aggregation failed", "event_id", f.EventID, "organizer_id", f.OrganizerID, "error", err)
		return nil, err
	}
	s.logger.Debug("aggregated", "records", len(records), "gross", l.Total().Gross.String())
	return l, nil
}
