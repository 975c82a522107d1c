package withdrawal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/app/ledger"
	"github.com/votecast/backoffice/internal/app/scheme"
	"github.com/votecast/backoffice/internal/domain"
	"github.com/votecast/backoffice/internal/infra/lock"
	"github.com/votecast/backoffice/internal/infra/sqlite"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// stubGateway records payouts and fails when err is set.
type stubGateway struct {
	mu    sync.Mutex
	sent  []Payout
	err   error
	calls int
}

func (g *stubGateway) Send(_ context.Context, p Payout) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	g.sent = append(g.sent, p)
	return "REF-" + p.RequestID, nil
}

type fixture struct {
	m        *Machine
	db       *sqlite.DB
	balances *ledger.BalanceCalculator
	gateway  *stubGateway
}

// newFixture sets up organizer o1 whose earned balance is earned, with a
// 0% scheme so gross equals organizer share.
func newFixture(t *testing.T, earned string) *fixture {
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
	if _, err := reg.Create(ctx, scheme.CreateInput{AdminPercentage: dec("0"), Status: domain.SchemeActive}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertPayment(ctx, domain.PaymentRecord{
		ID: "p1", EventID: "e1", CategoryID: "c1", NomineeID: "n1", Kind: domain.PaymentVote,
		Amount: dec(earned), VoteCount: 1, Method: domain.MethodMobileMoney, Reference: "ref-p1",
		Status: domain.PaymentCompleted, PaidAt: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	balances := ledger.NewBalanceCalculator(ledger.NewService(db, reg, nil), db)
	gw := &stubGateway{}
	m := New(db, balances, lock.NewLocal(), gw, Config{CommissionRate: dec("5")}, nil)
	return &fixture{m: m, db: db, balances: balances, gateway: gw}
}

func mobileInput(amount string) CreateInput {
	return CreateInput{
		OrganizerID: "o1",
		Amount:      dec(amount),
		Method:      domain.WithdrawMobileMoney,
		Destination: domain.Destination{AccountName: "Ama Mensah", AccountNumber: "0244000000", Provider: "MTN"},
	}
}

func (f *fixture) balance(t *testing.T) domain.OrganizerBalance {
	t.Helper()
	b, err := f.balances.Balance(context.Background(), "o1")
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestCreate_InsufficientBalance(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	_, err := f.m.Create(ctx, mobileInput("250.00"))
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	var ib *domain.InsufficientBalanceError
	if !errors.As(err, &ib) || !ib.Available.Equal(dec("200")) || !ib.Requested.Equal(dec("250")) {
		t.Errorf("detail = %+v", ib)
	}

	list, err := f.m.List(ctx, domain.WithdrawalFilter{OrganizerID: "o1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("requests created = %d, want 0", len(list))
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	bank := mobileInput("10")
	bank.Method = domain.WithdrawBank
	bank.Destination = domain.Destination{AccountNumber: "123", Provider: "GCB"}

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"zero amount", mobileInput("0")},
		{"negative amount", mobileInput("-5")},
		{"sub-cent amount", mobileInput("10.001")},
		{"bank without account name", bank},
		{"unknown method", CreateInput{OrganizerID: "o1", Amount: dec("1"), Method: "cash"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.m.Create(ctx, tt.in); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreate_PendingReducesAvailable(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	if _, err := f.m.Create(ctx, mobileInput("150.00")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.Create(ctx, mobileInput("60.00")); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("second request err = %v, want ErrInsufficientBalance", err)
	}
	if _, err := f.m.Create(ctx, mobileInput("50.00")); err != nil {
		t.Fatalf("exact remainder: %v", err)
	}
}

func TestCreate_ConcurrentRequestsCannotOverdraw(t *testing.T) {
	f := newFixture(t, "100.00")
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.m.Create(ctx, mobileInput("30.00"))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientBalance) {
				t.Errorf("unexpected err: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 3 {
		t.Errorf("created = %d, want 3", created)
	}
	if b := f.balance(t); b.Available.IsNegative() || !b.Available.Equal(dec("10")) {
		t.Errorf("available = %s, want 10", b.Available)
	}
}

func TestLifecycle_ApproveProcess(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	w, err := f.m.Create(ctx, mobileInput("100.00"))
	if err != nil {
		t.Fatal(err)
	}

	w, err = f.m.Approve(ctx, w.ID, "admin-1")
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != domain.WithdrawalProcessing || w.ProcessedBy != "admin-1" || w.ApprovedAt == nil {
		t.Errorf("approved = %+v", w)
	}
	if b := f.balance(t); !b.Current.Equal(dec("100")) || !b.InFlight.Equal(dec("100")) {
		t.Errorf("after approve: current=%s in_flight=%s, want 100/100", b.Current, b.InFlight)
	}

	w, err = f.m.ProcessPayment(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != domain.WithdrawalCompleted || w.CompletedAt == nil {
		t.Errorf("processed = %+v", w)
	}
	if !w.Fee.Equal(dec("5.00")) || !w.NetAmount.Equal(dec("95.00")) {
		t.Errorf("fee/net = %s/%s, want 5.00/95.00", w.Fee, w.NetAmount)
	}
	if w.PayoutReference != "REF-"+w.ID {
		t.Errorf("payout reference = %q", w.PayoutReference)
	}
	if len(f.gateway.sent) != 1 || !f.gateway.sent[0].Net.Equal(dec("95")) {
		t.Errorf("gateway payouts = %+v", f.gateway.sent)
	}

	stored, err := f.m.Get(ctx, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.WithdrawalCompleted || !stored.Fee.Equal(dec("5")) {
		t.Errorf("stored = %+v", stored)
	}
	if b := f.balance(t); !b.Current.Equal(dec("100")) || !b.Withdrawn.Equal(dec("100")) {
		t.Errorf("after payout: current=%s withdrawn=%s, want 100/100", b.Current, b.Withdrawn)
	}
}

func TestReject_LeavesBalanceUnchanged(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	w, err := f.m.Create(ctx, mobileInput("100.00"))
	if err != nil {
		t.Fatal(err)
	}
	before := f.balance(t)

	if _, err := f.m.Reject(ctx, w.ID, "admin-1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty reason err = %v, want ErrValidation", err)
	}
	if got, _ := f.m.Get(ctx, w.ID); got.Status != domain.WithdrawalPending {
		t.Fatalf("status after refused reject = %s, want pending", got.Status)
	}

	w, err = f.m.Reject(ctx, w.ID, "admin-1", "bank details invalid")
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != domain.WithdrawalRejected || w.RejectionReason != "bank details invalid" || w.RejectedAt == nil {
		t.Errorf("rejected = %+v", w)
	}

	after := f.balance(t)
	if !after.Current.Equal(before.Current) {
		t.Errorf("current changed: %s -> %s", before.Current, after.Current)
	}
	if !after.Available.Equal(dec("200")) {
		t.Errorf("available = %s, want 200", after.Available)
	}
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	rejected, err := f.m.Create(ctx, mobileInput("10"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.Reject(ctx, rejected.ID, "admin-1", "duplicate"); err != nil {
		t.Fatal(err)
	}

	completed, err := f.m.Create(ctx, mobileInput("10"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.Approve(ctx, completed.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.ProcessPayment(ctx, completed.ID); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{rejected.ID, completed.ID} {
		before, _ := f.m.Get(ctx, id)
		ops := map[string]func() error{
			"approve": func() error { _, err := f.m.Approve(ctx, id, "admin-2"); return err },
			"reject":  func() error { _, err := f.m.Reject(ctx, id, "admin-2", "again"); return err },
			"process": func() error { _, err := f.m.ProcessPayment(ctx, id); return err },
		}
		for name, op := range ops {
			if err := op(); !errors.Is(err, domain.ErrInvalidState) {
				t.Errorf("%s from %s: err = %v, want ErrInvalidState", name, before.Status, err)
			}
		}
		after, _ := f.m.Get(ctx, id)
		if after.Status != before.Status || after.ProcessedBy != before.ProcessedBy || !after.UpdatedAt.Equal(before.UpdatedAt) {
			t.Errorf("terminal request mutated: %+v -> %+v", before, after)
		}
	}
}

func TestProcessPayment_RequiresApproval(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	w, err := f.m.Create(ctx, mobileInput("10"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.m.ProcessPayment(ctx, w.ID)
	var ise *domain.InvalidStateError
	if !errors.As(err, &ise) || ise.From != domain.WithdrawalPending || ise.To != domain.WithdrawalCompleted {
		t.Fatalf("err = %v, want InvalidStateError pending->completed", err)
	}
	if f.gateway.calls != 0 {
		t.Errorf("gateway called %d times for a pending request", f.gateway.calls)
	}
}

func TestProcessPayment_GatewayFailureLeavesProcessing(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()

	w, err := f.m.Create(ctx, mobileInput("100"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.Approve(ctx, w.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}

	f.gateway.err = errors.New("provider timeout")
	if _, err := f.m.ProcessPayment(ctx, w.ID); !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("err = %v, want ErrPayoutFailed", err)
	}
	got, _ := f.m.Get(ctx, w.ID)
	if got.Status != domain.WithdrawalProcessing || !got.Fee.IsZero() || got.PayoutReference != "" {
		t.Errorf("after failed payout = %+v", got)
	}

	f.gateway.err = nil
	if _, err := f.m.ProcessPayment(ctx, w.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

// flakyStore fails the first completion write after the payout went out.
type flakyStore struct {
	*sqlite.DB
	failures int
}

func (s *flakyStore) TransitionWithdrawal(ctx context.Context, from domain.WithdrawalStatus, w domain.WithdrawalRequest) error {
	if w.Status == domain.WithdrawalCompleted && s.failures > 0 {
		s.failures--
		return errors.New("database is locked")
	}
	return s.DB.TransitionWithdrawal(ctx, from, w)
}

func TestProcessPayment_FailedCompletionDoesNotPayTwice(t *testing.T) {
	f := newFixture(t, "200.00")
	ctx := context.Background()
	store := &flakyStore{DB: f.db, failures: 1}
	m := New(store, f.balances, lock.NewLocal(), f.gateway, Config{CommissionRate: dec("5")}, nil)

	w, err := m.Create(ctx, mobileInput("100"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Approve(ctx, w.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.ProcessPayment(ctx, w.ID); err == nil {
		t.Fatal("first ProcessPayment succeeded, want the completion write error")
	}
	got, _ := m.Get(ctx, w.ID)
	if got.Status != domain.WithdrawalProcessing || got.PayoutReference != "REF-"+w.ID {
		t.Fatalf("after failed completion = %+v", got)
	}

	done, err := m.ProcessPayment(ctx, w.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if done.Status != domain.WithdrawalCompleted || done.PayoutReference != "REF-"+w.ID {
		t.Errorf("retried = %+v", done)
	}
	if !done.NetAmount.Equal(dec("95")) {
		t.Errorf("net = %s, want 95", done.NetAmount)
	}
	if f.gateway.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", f.gateway.calls)
	}
	if b := f.balance(t); !b.Withdrawn.Equal(dec("100")) || !b.InFlight.IsZero() {
		t.Errorf("withdrawn=%s in_flight=%s, want 100/0", b.Withdrawn, b.InFlight)
	}
}

func TestApprove_RevalidatesBalance(t *testing.T) {
	f := newFixture(t, "100.00")
	ctx := context.Background()

	a, err := f.m.Create(ctx, mobileInput("60"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.m.Create(ctx, mobileInput("40"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.Approve(ctx, a.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.m.ProcessPayment(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	// Current is now 40, so b still fits exactly.
	if _, err := f.m.Approve(ctx, b.ID, "admin-1"); err != nil {
		t.Fatalf("approve b: %v", err)
	}

	if _, err := f.m.Approve(ctx, "missing", "admin-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing request err = %v, want ErrNotFound", err)
	}
	if _, err := f.m.Approve(ctx, b.ID, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty admin err = %v, want ErrValidation", err)
	}
}

func TestLogGateway(t *testing.T) {
	g := NewLogGateway(nil)
	ref, err := g.Send(context.Background(), Payout{RequestID: "w1", Net: dec("95")})
	if err != nil || ref == "" {
		t.Fatalf("Send() = %q, %v", ref, err)
	}

	again, err := g.Send(context.Background(), Payout{RequestID: "w1", Net: dec("95")})
	if err != nil || again != ref {
		t.Errorf("repeat Send() = %q, %v, want %q", again, err, ref)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Send(ctx, Payout{RequestID: "w2"}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Send err = %v", err)
	}
}
