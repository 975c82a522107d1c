// Package scheme resolves and administers commission schemes.
//
// Resolution order for an event:
//  1. the event's own scheme, if active
//  2. the active platform-wide default
//  3. the explicitly configured fallback, if any
//
// Otherwise resolution fails with domain.ErrNoActiveScheme. There is no
// implicit 0% default.
package scheme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
	"github.com/votecast/backoffice/internal/infra/observability"
)

// Config controls registry behavior.
type Config struct {
	// Fallback is used when neither an event nor a default scheme is active.
	// Nil means resolution fails instead.
	Fallback *domain.Scheme
}

// Registry is the single owner of scheme reads and writes.
//
// Mutations hold the write lock and snapshots hold the read lock, so a
// snapshot never mixes old and new percentages.
type Registry struct {
	mu     sync.RWMutex
	store  domain.SchemeStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scheme registry.
func New(store domain.SchemeStore, cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "scheme"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ─── Resolution ─────────────────────────────────────────────────────────────

// Resolve returns the scheme that prices payments for eventID.
func (r *Registry) Resolve(ctx context.Context, eventID string) (domain.Scheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(ctx, eventID)
}

// Snapshot resolves every event in one consistent read.
func (r *Registry) Snapshot(ctx context.Context, eventIDs []string) (map[string]domain.Scheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Scheme, len(eventIDs))
	for _, id := range eventIDs {
		if _, ok := out[id]; ok {
			continue
		}
		s, err := r.resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}

func (r *Registry) resolve(ctx context.Context, eventID string) (domain.Scheme, error) {
	if eventID != "" {
		s, err := r.store.GetEventScheme(ctx, eventID)
		switch {
		case err == nil && s.Status == domain.SchemeActive:
			observability.SchemeResolutions.WithLabelValues("event").Inc()
			return s, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.Scheme{}, fmt.Errorf("resolve scheme for event %s: %w", eventID, err)
		}
	}

	s, err := r.store.GetDefaultScheme(ctx)
	switch {
	case err == nil && s.Status == domain.SchemeActive:
		observability.SchemeResolutions.WithLabelValues("default").Inc()
		return s, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return domain.Scheme{}, fmt.Errorf("resolve default scheme: %w", err)
	}

	if r.cfg.Fallback != nil {
		observability.SchemeResolutions.WithLabelValues("fallback").Inc()
		return *r.cfg.Fallback, nil
	}
	observability.SchemeResolutions.WithLabelValues("none").Inc()
	return domain.Scheme{}, &domain.NoActiveSchemeError{EventID: eventID}
}

// ─── Administration ─────────────────────────────────────────────────────────

// CreateInput describes a new scheme. An empty EventID creates the
// platform default.
type CreateInput struct {
	EventID                string
	VotePrice              decimal.Decimal
	AdminPercentage        decimal.Decimal
	BulkDiscountPercentage decimal.Decimal
	MinBulkQuantity        int
	Status                 domain.SchemeStatus // defaults to draft
}

// Create validates and stores a new scheme.
func (r *Registry) Create(ctx context.Context, in CreateInput) (domain.Scheme, error) {
	status := in.Status
	if status == "" {
		status = domain.SchemeDraft
	}
	if status == domain.SchemeEnded {
		return domain.Scheme{}, domain.Invalid("status", "cannot create an ended scheme")
	}
	now := r.now()
	s := domain.Scheme{
		ID:                     uuid.NewString(),
		EventID:                in.EventID,
		VotePrice:              in.VotePrice,
		BulkDiscountPercentage: in.BulkDiscountPercentage,
		MinBulkQuantity:        in.MinBulkQuantity,
		Status:                 status,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.SetAdminPercentage(in.AdminPercentage); err != nil {
		return domain.Scheme{}, err
	}
	if err := s.Validate(); err != nil {
		return domain.Scheme{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.InsertScheme(ctx, s); err != nil {
		return domain.Scheme{}, err
	}
	r.logger.Info("scheme created",
		"scheme_id", s.ID, "event_id", s.EventID,
		"admin_percentage", s.AdminPercentage.String(), "status", s.Status)
	return s, nil
}

// Get returns a scheme by ID.
func (r *Registry) Get(ctx context.Context, id string) (domain.Scheme, error) {
	return r.store.GetScheme(ctx, id)
}

// List returns all schemes.
func (r *Registry) List(ctx context.Context) ([]domain.Scheme, error) {
	return r.store.ListSchemes(ctx)
}

// SetAdminPercentage changes the admin share; the organizer share is
// always its complement.
func (r *Registry) SetAdminPercentage(ctx context.Context, id string, pct decimal.Decimal) (domain.Scheme, error) {
	if !domain.ValidPercentage(pct) {
		return domain.Scheme{}, domain.ErrInvalidPercentage
	}
	return r.mutate(ctx, id, func(s *domain.Scheme) error {
		return s.SetAdminPercentage(pct)
	})
}

// PricingInput updates vote pricing. Nil fields are left unchanged.
type PricingInput struct {
	VotePrice              *decimal.Decimal
	BulkDiscountPercentage *decimal.Decimal
	MinBulkQuantity        *int
}

// SetPricing updates vote price and bulk-discount rule.
func (r *Registry) SetPricing(ctx context.Context, id string, in PricingInput) (domain.Scheme, error) {
	return r.mutate(ctx, id, func(s *domain.Scheme) error {
		if in.VotePrice != nil {
			s.VotePrice = *in.VotePrice
		}
		if in.BulkDiscountPercentage != nil {
			s.BulkDiscountPercentage = *in.BulkDiscountPercentage
		}
		if in.MinBulkQuantity != nil {
			s.MinBulkQuantity = *in.MinBulkQuantity
		}
		return s.Validate()
	})
}

// SetStatus moves a scheme through its lifecycle.
func (r *Registry) SetStatus(ctx context.Context, id string, next domain.SchemeStatus) (domain.Scheme, error) {
	return r.mutate(ctx, id, func(s *domain.Scheme) error {
		if !s.Status.CanTransition(next) {
			return domain.Invalid("status", fmt.Sprintf("cannot move scheme from %s to %s", s.Status, next))
		}
		s.Status = next
		return nil
	})
}

// Retire removes a scheme from service. Schemes that price existing
// payments are ended, never deleted; unreferenced drafts are deleted.
// It reports whether the row was physically deleted.
func (r *Registry) Retire(ctx context.Context, id string) (deleted bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.store.GetScheme(ctx, id)
	if err != nil {
		return false, err
	}
	referenced, err := r.store.SchemeReferenced(ctx, s)
	if err != nil {
		return false, fmt.Errorf("check scheme references: %w", err)
	}
	if !referenced && s.Status == domain.SchemeDraft {
		if err := r.store.DeleteScheme(ctx, id); err != nil {
			return false, err
		}
		r.logger.Info("scheme deleted", "scheme_id", id)
		return true, nil
	}
	if s.Status == domain.SchemeEnded {
		return false, nil
	}
	s.Status = domain.SchemeEnded
	s.UpdatedAt = r.now()
	if err := r.store.UpdateScheme(ctx, s); err != nil {
		return false, err
	}
	r.logger.Info("scheme ended", "scheme_id", id, "referenced", referenced)
	return false, nil
}

// mutate applies fn to a copy of the stored scheme and persists it under
// the write lock. A failing fn leaves the stored scheme untouched.
func (r *Registry) mutate(ctx context.Context, id string, fn func(*domain.Scheme) error) (domain.Scheme, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.store.GetScheme(ctx, id)
	if err != nil {
		return domain.Scheme{}, err
	}
	if s.Status == domain.SchemeEnded {
		return domain.Scheme{}, domain.Invalid("status", "ended schemes cannot be changed")
	}
	if err := fn(&s); err != nil {
		return domain.Scheme{}, err
	}
	s.UpdatedAt = r.now()
	if err := r.store.UpdateScheme(ctx, s); err != nil {
		return domain.Scheme{}, err
	}
	r.logger.Info("scheme updated",
		"scheme_id", s.ID, "event_id", s.EventID,
		"admin_percentage", s.AdminPercentage.String(),
		"organizer_percentage", s.OrganizerPercentage().String(),
		"status", s.Status)
	return s, nil
}

// FallbackScheme builds the configured fallback from an admin percentage.
func FallbackScheme(adminPct decimal.Decimal) (*domain.Scheme, error) {
	s := &domain.Scheme{ID: "fallback", Status: domain.SchemeActive}
	if err := s.SetAdminPercentage(adminPct); err != nil {
		return nil, err
	}
	return s, nil
}
