// Package bulk turns vote purchases into payment records.
//
// A bulk package fixes (vote_count, price) as a unit: the package price
// always replaces the scheme's vote price, while commission is still taken
// at the event scheme's rate when the record is aggregated.
package bulk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/domain"
)

// Purchase carries the processor-side facts of a purchase.
type Purchase struct {
	Method    domain.PaymentMethod
	Reference string
	Status    domain.PaymentStatus // defaults to completed
	PaidAt    time.Time
}

func (p Purchase) status() domain.PaymentStatus {
	if p.Status == "" {
		return domain.PaymentCompleted
	}
	return p.Status
}

// ResolveBulkPurchase builds the payment record for quantity units of pkg.
// A quantity below 1 means one unit.
func ResolveBulkPurchase(pkg domain.BulkPackage, quantity int64, in Purchase) (domain.PaymentRecord, error) {
	if quantity < 1 {
		quantity = 1
	}
	switch {
	case !pkg.Active:
		return domain.PaymentRecord{}, domain.Invalid("package", "package "+pkg.ID+" is not active")
	case pkg.VoteCount <= 0:
		return domain.PaymentRecord{}, domain.Invalid("package", "package "+pkg.ID+" has no votes")
	case pkg.Price.IsNegative():
		return domain.PaymentRecord{}, domain.Invalid("package", "package "+pkg.ID+" has a negative price")
	case !pkg.Price.Equal(domain.RoundCurrency(pkg.Price)):
		return domain.PaymentRecord{}, domain.Invalid("package", "package "+pkg.ID+" price has more than two decimal places")
	}

	p := domain.PaymentRecord{
		ID:         uuid.NewString(),
		EventID:    pkg.EventID,
		CategoryID: pkg.CategoryID,
		NomineeID:  pkg.NomineeID,
		Kind:       domain.PaymentBulk,
		PackageID:  pkg.ID,
		Amount:     pkg.Price.Mul(decimal.NewFromInt(quantity)),
		VoteCount:  pkg.VoteCount * quantity,
		Method:     in.Method,
		Reference:  in.Reference,
		Status:     in.status(),
		PaidAt:     in.PaidAt,
	}
	if err := p.Validate(); err != nil {
		return domain.PaymentRecord{}, err
	}
	return p, nil
}

// QuoteVotes prices a unit-vote purchase under a scheme. The scheme's bulk
// discount applies once votes reaches its minimum quantity.
func QuoteVotes(s domain.Scheme, votes int64) (decimal.Decimal, error) {
	if votes <= 0 {
		return decimal.Decimal{}, domain.Invalid("votes", "must be positive")
	}
	gross := s.VotePrice.Mul(decimal.NewFromInt(votes))
	if s.BulkDiscountApplies(votes) {
		gross = gross.Sub(domain.PercentOf(gross, s.BulkDiscountPercentage))
	}
	return domain.RoundCurrency(gross), nil
}

// VoteTarget names the nominee a unit-vote purchase is for.
type VoteTarget struct {
	EventID    string
	CategoryID string
	NomineeID  string
}

// ResolveVotePurchase builds the payment record for a unit-vote purchase
// priced by QuoteVotes.
func ResolveVotePurchase(s domain.Scheme, target VoteTarget, votes int64, in Purchase) (domain.PaymentRecord, error) {
	amount, err := QuoteVotes(s, votes)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	p := domain.PaymentRecord{
		ID:         uuid.NewString(),
		EventID:    target.EventID,
		CategoryID: target.CategoryID,
		NomineeID:  target.NomineeID,
		Kind:       domain.PaymentVote,
		Amount:     amount,
		VoteCount:  votes,
		Method:     in.Method,
		Reference:  in.Reference,
		Status:     in.status(),
		PaidAt:     in.PaidAt,
	}
	if err := p.Validate(); err != nil {
		return domain.PaymentRecord{}, err
	}
	return p, nil
}
