package withdrawal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
)

// Payout is the instruction handed to the payout gateway.
type Payout struct {
	RequestID   string
	OrganizerID string
	Method      domain.WithdrawalMethod
	Destination domain.Destination
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Net         decimal.Decimal
}

// PayoutGateway sends money to an organizer. It returns the provider's
// reference for the transfer.
//
// RequestID is the idempotency key: a repeated Send for the same request
// must return the first transfer's reference instead of paying again.
type PayoutGateway interface {
	Send(ctx context.Context, p Payout) (reference string, err error)
}

// LogGateway records payouts in the log and returns a generated reference.
// It stands in for a real provider when payouts are settled manually.
type LogGateway struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent map[string]string // request ID → reference
}

// NewLogGateway creates a logging payout gateway.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogGateway{logger: logger.With("component", "payout"), sent: make(map[string]string)}
}

// Send implements PayoutGateway.
func (g *LogGateway) Send(ctx context.Context, p Payout) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if ref, ok := g.sent[p.RequestID]; ok {
		g.logger.WarnContext(ctx, "payout already issued", "request_id", p.RequestID, "reference", ref)
		return ref, nil
	}
	ref := "PAYOUT-" + uuid.NewString()
	g.sent[p.RequestID] = ref
	g.logger.InfoContext(ctx, "payout issued",
		"request_id", p.RequestID, "organizer_id", p.OrganizerID,
		"method", p.Method, "provider", p.Destination.Provider,
		"net", p.Net.String(), "fee", p.Fee.String(), "reference", ref)
	return ref, nil
}
