// Package withdrawal owns the lifecycle of organizer withdrawal requests.
//
//	pending → processing → completed
//	pending → rejected
//
// Every mutation for an organizer runs under that organizer's lock, and
// every persisted transition is conditional on the state it started from.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
	"github.com/votecast/backoffice/internal/infra/lock"
	"github.com/votecast/backoffice/internal/infra/observability"
)

// ErrPayoutFailed reports that the payout gateway refused a transfer. The
// request stays in processing and can be retried.
var ErrPayoutFailed = errors.New("payout failed")

// BalanceSource computes an organizer's balance.
type BalanceSource interface {
	Balance(ctx context.Context, organizerID string) (domain.OrganizerBalance, error)
}

// Config holds the platform settings the machine applies.
type Config struct {
	// CommissionRate is the platform withdrawal fee in percent.
	CommissionRate decimal.Decimal
}

// Machine drives withdrawal requests through their states.
type Machine struct {
	store    domain.WithdrawalStore
	balances BalanceSource
	locker   lock.Locker
	gateway  PayoutGateway
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a withdrawal state machine.
func New(store domain.WithdrawalStore, balances BalanceSource, locker lock.Locker, gateway PayoutGateway, cfg Config, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		store:    store,
		balances: balances,
		locker:   locker,
		gateway:  gateway,
		cfg:      cfg,
		logger:   logger.With("component", "withdrawal"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is an organizer's withdrawal request.
type CreateInput struct {
	OrganizerID string                  `json:"organizer_id"`
	Amount      decimal.Decimal         `json:"amount"`
	Method      domain.WithdrawalMethod `json:"method"`
	Destination domain.Destination      `json:"destination"`
}

// ─── Transitions ────────────────────────────────────────────────────────────

// Create validates the request against the organizer's available balance
// and stores it as pending.
func (m *Machine) Create(ctx context.Context, in CreateInput) (domain.WithdrawalRequest, error) {
	if err := domain.ValidateWithdrawal(in.OrganizerID, in.Amount, in.Method, in.Destination); err != nil {
		observability.WithdrawalRejections.WithLabelValues("validation").Inc()
		return domain.WithdrawalRequest{}, err
	}

	release, err := m.lock(ctx, in.OrganizerID)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}
	defer release()

	bal, err := m.balances.Balance(ctx, in.OrganizerID)
	if err != nil {
		return domain.WithdrawalRequest{}, fmt.Errorf("balance for %s: %w", in.OrganizerID, err)
	}
	if in.Amount.GreaterThan(bal.Available) {
		observability.WithdrawalRejections.WithLabelValues("insufficient_balance").Inc()
		m.logger.Info("withdrawal refused",
			"organizer_id", in.OrganizerID, "requested", in.Amount.String(), "available", bal.Available.String())
		return domain.WithdrawalRequest{}, &domain.InsufficientBalanceError{
			OrganizerID: in.OrganizerID,
			Requested:   in.Amount,
			Available:   bal.Available,
		}
	}

	now := m.now()
	w := domain.WithdrawalRequest{
		ID:          uuid.NewString(),
		OrganizerID: in.OrganizerID,
		Amount:      in.Amount,
		Method:      in.Method,
		Destination: in.Destination,
		Status:      domain.WithdrawalPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.InsertWithdrawal(ctx, w); err != nil {
		return domain.WithdrawalRequest{}, fmt.Errorf("insert withdrawal: %w", err)
	}
	m.logger.Info("withdrawal requested",
		"request_id", w.ID, "organizer_id", w.OrganizerID, "amount", w.Amount.String(), "method", w.Method)
	return w, nil
}

// Approve moves a pending request to processing. The amount is checked
// again against the organizer's current balance.
func (m *Machine) Approve(ctx context.Context, id, adminID string) (domain.WithdrawalRequest, error) {
	if strings.TrimSpace(adminID) == "" {
		return domain.WithdrawalRequest{}, domain.Invalid("admin_id", "is required")
	}
	return m.apply(ctx, id, domain.WithdrawalProcessing, func(w *domain.WithdrawalRequest) error {
		bal, err := m.balances.Balance(ctx, w.OrganizerID)
		if err != nil {
			return fmt.Errorf("balance for %s: %w", w.OrganizerID, err)
		}
		if w.Amount.GreaterThan(bal.Current) {
			observability.WithdrawalRejections.WithLabelValues("insufficient_balance").Inc()
			return &domain.InsufficientBalanceError{
				OrganizerID: w.OrganizerID,
				Requested:   w.Amount,
				Available:   bal.Current,
			}
		}
		now := m.now()
		w.ProcessedBy = adminID
		w.ApprovedAt = &now
		return nil
	})
}

// Reject moves a pending request to rejected. A reason is mandatory. The
// balance is unaffected because pending requests were never deducted.
func (m *Machine) Reject(ctx context.Context, id, adminID, reason string) (domain.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		observability.WithdrawalRejections.WithLabelValues("validation").Inc()
		return domain.WithdrawalRequest{}, domain.Invalid("reason", "a rejection reason is required")
	}
	if strings.TrimSpace(adminID) == "" {
		return domain.WithdrawalRequest{}, domain.Invalid("admin_id", "is required")
	}
	return m.apply(ctx, id, domain.WithdrawalRejected, func(w *domain.WithdrawalRequest) error {
		now := m.now()
		w.ProcessedBy = adminID
		w.RejectionReason = reason
		w.RejectedAt = &now
		return nil
	})
}

// ProcessPayment pays out a processing request and completes it. The fee
// uses the platform commission rate. If the gateway fails nothing changes.
//
// The gateway reference is stored as soon as the send succeeds. A request
// that already carries one was paid by an earlier attempt whose completion
// write failed, so a retry completes it without sending again.
func (m *Machine) ProcessPayment(ctx context.Context, id string) (domain.WithdrawalRequest, error) {
	return m.apply(ctx, id, domain.WithdrawalCompleted, func(w *domain.WithdrawalRequest) error {
		fee, net := domain.WithdrawalFee(w.Amount, m.cfg.CommissionRate)

		ref := w.PayoutReference
		if ref == "" {
			sent, err := m.sendPayout(ctx, w, fee, net)
			if err != nil {
				return err
			}
			if err := m.store.RecordPayoutReference(ctx, w.ID, sent, m.now()); err != nil {
				m.logger.Error("payout sent but reference not stored",
					"request_id", w.ID, "reference", sent, "error", err)
				return fmt.Errorf("record payout %s for request %s: %w", sent, w.ID, err)
			}
			ref = sent
		} else {
			m.logger.Warn("completing request with an earlier payout",
				"request_id", w.ID, "reference", ref)
		}

		now := m.now()
		w.Fee = fee
		w.NetAmount = net
		w.PayoutReference = ref
		w.CompletedAt = &now
		return nil
	})
}

func (m *Machine) sendPayout(ctx context.Context, w *domain.WithdrawalRequest, fee, net decimal.Decimal) (string, error) {
	start := time.Now()
	ref, err := m.gateway.Send(ctx, Payout{
		RequestID:   w.ID,
		OrganizerID: w.OrganizerID,
		Method:      w.Method,
		Destination: w.Destination,
		Amount:      w.Amount,
		Fee:         fee,
		Net:         net,
	})
	observability.WithdrawalPayoutSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.WithdrawalRejections.WithLabelValues("payout_failed").Inc()
		m.logger.Error("payout failed", "request_id", w.ID, "error", err)
		return "", fmt.Errorf("%w: request %s: %v", ErrPayoutFailed, w.ID, err)
	}
	return ref, nil
}

// apply runs one transition under the organizer lock: re-read the request,
// check the move is legal, let fn fill in the new fields, then persist
// conditionally on the state that was read.
func (m *Machine) apply(ctx context.Context, id string, next domain.WithdrawalStatus, fn func(*domain.WithdrawalRequest) error) (domain.WithdrawalRequest, error) {
	w, err := m.store.GetWithdrawal(ctx, id)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}

	release, err := m.lock(ctx, w.OrganizerID)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}
	defer release()

	// The request may have moved while we waited for the lock.
	w, err = m.store.GetWithdrawal(ctx, id)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}
	from := w.Status
	if !from.CanTransition(next) {
		observability.WithdrawalRejections.WithLabelValues("invalid_state").Inc()
		return domain.WithdrawalRequest{}, &domain.InvalidStateError{RequestID: id, From: from, To: next}
	}

	updated := w
	if err := fn(&updated); err != nil {
		return domain.WithdrawalRequest{}, err
	}
	updated.Status = next
	updated.UpdatedAt = m.now()
	if err := m.store.TransitionWithdrawal(ctx, from, updated); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			observability.WithdrawalRejections.WithLabelValues("invalid_state").Inc()
		}
		return domain.WithdrawalRequest{}, err
	}

	observability.WithdrawalTransitions.WithLabelValues(string(from), string(next)).Inc()
	m.logger.Info("withdrawal transition",
		"request_id", id, "organizer_id", updated.OrganizerID,
		"from", from, "to", next, "processed_by", updated.ProcessedBy)
	return updated, nil
}

func (m *Machine) lock(ctx context.Context, organizerID string) (func(), error) {
	start := time.Now()
	release, err := m.locker.Acquire(ctx, "organizer:"+organizerID)
	observability.LockWaitSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("lock organizer %s: %w", organizerID, err)
	}
	return release, nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Get returns a request by ID.
func (m *Machine) Get(ctx context.Context, id string) (domain.WithdrawalRequest, error) {
	return m.store.GetWithdrawal(ctx, id)
}

// List returns requests matching f, newest first.
func (m *Machine) List(ctx context.Context, f domain.WithdrawalFilter) ([]domain.WithdrawalRequest, error) {
	return m.store.ListWithdrawals(ctx, f)
}
