package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/votecast/backoffice/internal/app/scheme"
	"github.com/votecast/backoffice/internal/domain"
	"github.com/votecast/backoffice/internal/infra/sqlite"
)

func newTestBalance(t *testing.T) (*BalanceCalculator, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, step := range []error{
		db.UpsertEvent(ctx, domain.Event{ID: "e1", OrganizerID: "o1", Name: "Music Awards"}),
		db.UpsertCategory(ctx, domain.Category{ID: "c1", EventID: "e1", Name: "Best Artist"}),
		db.UpsertNominee(ctx, domain.Nominee{ID: "n1", CategoryID: "c1", Name: "Ama"}),
	} {
		if step != nil {
			t.Fatal(step)
		}
	}

	reg := scheme.New(db, scheme.Config{}, nil)
	if _, err := reg.Create(ctx, scheme.CreateInput{AdminPercentage: dec("10"), Status: domain.SchemeActive}); err != nil {
		t.Fatal(err)
	}
	return NewBalanceCalculator(NewService(db, reg, nil), db), db
}

func insertPayment(t *testing.T, db *sqlite.DB, id, amount string, status domain.PaymentStatus) {
	t.Helper()
	err := db.InsertPayment(context.Background(), domain.PaymentRecord{
		ID: id, EventID: "e1", CategoryID: "c1", NomineeID: "n1", Kind: domain.PaymentVote,
		Amount: dec(amount), VoteCount: 1, Method: domain.MethodCard, Reference: "ref-" + id,
		Status: status, PaidAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func insertWithdrawal(t *testing.T, db *sqlite.DB, id, amount string, status domain.WithdrawalStatus) {
	t.Helper()
	now := time.Now().UTC()
	err := db.InsertWithdrawal(context.Background(), domain.WithdrawalRequest{
		ID: id, OrganizerID: "o1", Amount: dec(amount), Method: domain.WithdrawMobileMoney,
		Destination: domain.Destination{AccountNumber: "0244000000", Provider: "MTN"},
		Status:      status, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBalance(t *testing.T) {
	b, db := newTestBalance(t)
	ctx := context.Background()

	insertPayment(t, db, "p1", "100.00", domain.PaymentCompleted)
	insertPayment(t, db, "p2", "200.00", domain.PaymentCompleted)
	insertPayment(t, db, "p3", "1000.00", domain.PaymentPending)

	insertWithdrawal(t, db, "w1", "50.00", domain.WithdrawalCompleted)
	insertWithdrawal(t, db, "w2", "30.00", domain.WithdrawalProcessing)
	insertWithdrawal(t, db, "w3", "40.00", domain.WithdrawalPending)
	insertWithdrawal(t, db, "w4", "500.00", domain.WithdrawalRejected)

	got, err := b.Balance(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"earned", got.Earned.String(), "270"},
		{"withdrawn", got.Withdrawn.String(), "50"},
		{"in_flight", got.InFlight.String(), "30"},
		{"pending", got.Pending.String(), "40"},
		{"current", got.Current.String(), "190"},
		{"available", got.Available.String(), "150"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !dec(tt.got).Equal(dec(tt.want)) {
				t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestBalance_NeverNegative(t *testing.T) {
	b, db := newTestBalance(t)

	insertPayment(t, db, "p1", "10.00", domain.PaymentCompleted)
	insertWithdrawal(t, db, "w1", "100.00", domain.WithdrawalCompleted)

	got, err := b.Balance(context.Background(), "o1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Current.IsNegative() || got.Available.IsNegative() {
		t.Errorf("balance negative: current=%s available=%s", got.Current, got.Available)
	}
}

func TestBalance_UnknownOrganizer(t *testing.T) {
	b, _ := newTestBalance(t)
	got, err := b.Balance(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Current.IsZero() || !got.Available.IsZero() {
		t.Errorf("unknown organizer balance = %+v, want zero", got)
	}
}
