package ledger

import (
	"context"
	"fmt"

	"github.com/votecast/backoffice/internal/domain"
)

// BalanceCalculator derives an organizer's withdrawable balance. Display
// and withdrawal enforcement both go through it.
type BalanceCalculator struct {
	ledger      *Service
	withdrawals domain.WithdrawalStore
}

// NewBalanceCalculator creates a balance calculator.
func NewBalanceCalculator(ledger *Service, withdrawals domain.WithdrawalStore) *BalanceCalculator {
	return &BalanceCalculator{ledger: ledger, withdrawals: withdrawals}
}

// Balance returns the organizer's position. Earned is the organizer share
// of every completed payment on the organizer's events; rejected requests
// never count.
func (b *BalanceCalculator) Balance(ctx context.Context, organizerID string) (domain.OrganizerBalance, error) {
	l, err := b.ledger.Report(ctx, domain.PaymentFilter{OrganizerID: organizerID})
	if err != nil {
		return domain.OrganizerBalance{}, err
	}
	totals, err := b.withdrawals.WithdrawalTotals(ctx, organizerID)
	if err != nil {
		return domain.OrganizerBalance{}, fmt.Errorf("withdrawal totals for %s: %w", organizerID, err)
	}
	earned := l.Organizer(organizerID).OrganizerShare
	return domain.NewOrganizerBalance(organizerID, earned, totals.Completed, totals.Processing, totals.Pending), nil
}
