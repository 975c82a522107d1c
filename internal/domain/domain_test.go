package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ─── Split Tests ────────────────────────────────────────────────────────────

func TestSplit_Example(t *testing.T) {
	commission, share := Split(dec("100.00"), Scheme{AdminPercentage: dec("10")})
	if !commission.Equal(dec("10.00")) {
		t.Errorf("commission = %s, want 10.00", commission)
	}
	if !share.Equal(dec("90.00")) {
		t.Errorf("organizer share = %s, want 90.00", share)
	}
}

func TestSplit_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		gross, pct, commission string
	}{
		{"0.05", "10", "0.01"},   // 0.005 → 0.01
		{"1.25", "10", "0.13"},   // 0.125 → 0.13
		{"3.33", "12.5", "0.42"}, // 0.41625 → 0.42
		{"0.04", "10", "0.00"},   // 0.004 → 0.00
		{"19.99", "0", "0.00"},
		{"19.99", "100", "19.99"},
	}
	for _, tt := range tests {
		t.Run(tt.gross+"@"+tt.pct, func(t *testing.T) {
			got, _ := Split(dec(tt.gross), Scheme{AdminPercentage: dec(tt.pct)})
			if !got.Equal(dec(tt.commission)) {
				t.Errorf("commission = %s, want %s", got, tt.commission)
			}
		})
	}
}

func TestSplit_Completeness(t *testing.T) {
	amounts := []string{"0", "0.01", "0.05", "1", "1.25", "7.77", "33.33", "99.99", "100", "12345.67"}
	for pct := 0; pct <= 100; pct++ {
		scheme := Scheme{AdminPercentage: decimal.NewFromInt(int64(pct))}
		for _, a := range amounts {
			gross := dec(a)
			c, s := Split(gross, scheme)
			if !c.Add(s).Equal(gross) {
				t.Fatalf("pct=%d gross=%s: commission %s + share %s != gross", pct, a, c, s)
			}
			if c.IsNegative() || s.IsNegative() {
				t.Fatalf("pct=%d gross=%s: negative split %s/%s", pct, a, c, s)
			}
		}
	}
}

func TestEntryFor(t *testing.T) {
	p := PaymentRecord{ID: "p1", EventID: "e1", CategoryID: "c1", NomineeID: "n1", OrganizerID: "o1", Amount: dec("50.00"), VoteCount: 100}
	e := EntryFor(p, Scheme{ID: "s1", AdminPercentage: dec("10")})
	if e.SchemeID != "s1" || e.OrganizerID != "o1" || e.Votes != 100 {
		t.Errorf("entry attribution wrong: %+v", e)
	}
	if !e.Commission.Equal(dec("5.00")) || !e.OrganizerShare.Equal(dec("45.00")) {
		t.Errorf("split = %s/%s, want 5.00/45.00", e.Commission, e.OrganizerShare)
	}
}

// ─── Scheme Tests ───────────────────────────────────────────────────────────

func TestScheme_SetAdminPercentage(t *testing.T) {
	s := Scheme{AdminPercentage: dec("10")}
	if err := s.SetAdminPercentage(dec("15.5")); err != nil {
		t.Fatalf("SetAdminPercentage: %v", err)
	}
	if !s.OrganizerPercentage().Equal(dec("84.5")) {
		t.Errorf("organizer = %s, want 84.5", s.OrganizerPercentage())
	}

	for _, bad := range []string{"-0.01", "100.01", "250"} {
		if err := s.SetAdminPercentage(dec(bad)); !errors.Is(err, ErrInvalidPercentage) {
			t.Errorf("SetAdminPercentage(%s) err = %v, want ErrInvalidPercentage", bad, err)
		}
	}
	if !s.AdminPercentage.Equal(dec("15.5")) {
		t.Errorf("rejected update mutated scheme: admin = %s", s.AdminPercentage)
	}
}

func TestScheme_PercentageInvariant(t *testing.T) {
	var s Scheme
	for _, p := range []string{"0", "0.5", "10", "33.33", "99.99", "100"} {
		if err := s.SetAdminPercentage(dec(p)); err != nil {
			t.Fatal(err)
		}
		if sum := s.AdminPercentage.Add(s.OrganizerPercentage()); !sum.Equal(hundred) {
			t.Errorf("admin %s + organizer %s = %s, want 100", p, s.OrganizerPercentage(), sum)
		}
	}
}

func TestSchemeStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to SchemeStatus
		want     bool
	}{
		{SchemeDraft, SchemeActive, true},
		{SchemeDraft, SchemeSuspended, false},
		{SchemeActive, SchemeSuspended, true},
		{SchemeSuspended, SchemeActive, true},
		{SchemeActive, SchemeEnded, true},
		{SchemeEnded, SchemeActive, false},
		{SchemeEnded, SchemeDraft, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s → %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// ─── Withdrawal Tests ───────────────────────────────────────────────────────

func TestWithdrawalStatus_TerminalStatesAcceptNothing(t *testing.T) {
	all := []WithdrawalStatus{WithdrawalPending, WithdrawalProcessing, WithdrawalCompleted, WithdrawalRejected}
	for _, from := range []WithdrawalStatus{WithdrawalCompleted, WithdrawalRejected} {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range all {
			if from.CanTransition(to) {
				t.Errorf("%s → %s accepted, terminal states must reject all", from, to)
			}
		}
	}
	if !WithdrawalPending.CanTransition(WithdrawalProcessing) || !WithdrawalPending.CanTransition(WithdrawalRejected) {
		t.Error("pending must move to processing or rejected")
	}
	if WithdrawalPending.CanTransition(WithdrawalCompleted) {
		t.Error("pending must not skip processing")
	}
	if WithdrawalProcessing.CanTransition(WithdrawalRejected) {
		t.Error("processing must not be rejected")
	}
}

func TestValidateWithdrawal(t *testing.T) {
	mm := Destination{AccountNumber: "0244000000", Provider: "MTN"}
	bank := Destination{AccountName: "Acme Events", AccountNumber: "1234567890", Provider: "GCB"}
	tests := []struct {
		name   string
		org    string
		amount string
		method WithdrawalMethod
		dest   Destination
		ok     bool
	}{
		{"mobile money ok", "org-1", "10.00", WithdrawMobileMoney, mm, true},
		{"bank ok", "org-1", "10.50", WithdrawBank, bank, true},
		{"missing organizer", "", "10", WithdrawBank, bank, false},
		{"zero amount", "org-1", "0", WithdrawBank, bank, false},
		{"sub-cent amount", "org-1", "10.005", WithdrawBank, bank, false},
		{"unknown method", "org-1", "10", "crypto", bank, false},
		{"bank without name", "org-1", "10", WithdrawBank, mm, false},
		{"mobile without network", "org-1", "10", WithdrawMobileMoney, Destination{AccountNumber: "0244"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithdrawal(tt.org, dec(tt.amount), tt.method, tt.dest)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestWithdrawalFee(t *testing.T) {
	fee, net := WithdrawalFee(dec("100.00"), dec("2.5"))
	if !fee.Equal(dec("2.50")) || !net.Equal(dec("97.50")) {
		t.Errorf("fee/net = %s/%s, want 2.50/97.50", fee, net)
	}
	fee, net = WithdrawalFee(dec("33.33"), dec("3"))
	if !fee.Add(net).Equal(dec("33.33")) {
		t.Errorf("fee %s + net %s != amount", fee, net)
	}
}

// ─── Balance Tests ──────────────────────────────────────────────────────────

func TestNewOrganizerBalance(t *testing.T) {
	b := NewOrganizerBalance("o1", dec("200"), dec("50"), dec("25"), dec("100"))
	if !b.Current.Equal(dec("125")) {
		t.Errorf("current = %s, want 125", b.Current)
	}
	if !b.Available.Equal(dec("25")) {
		t.Errorf("available = %s, want 25", b.Available)
	}

	b = NewOrganizerBalance("o1", dec("10"), dec("50"), dec("0"), dec("5"))
	if b.Current.IsNegative() || b.Available.IsNegative() {
		t.Errorf("balance went negative: %+v", b)
	}
}

// ─── Error Tests ────────────────────────────────────────────────────────────

func TestDetailErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		err    error
		target error
	}{
		{&InsufficientBalanceError{OrganizerID: "o1", Requested: dec("250"), Available: dec("200")}, ErrInsufficientBalance},
		{&InvalidStateError{RequestID: "w1", From: WithdrawalCompleted, To: WithdrawalProcessing}, ErrInvalidState},
		{Invalid("reason", "is required"), ErrValidation},
		{&NoActiveSchemeError{EventID: "e1"}, ErrNoActiveScheme},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.target) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
		}
	}

	msg := (&InsufficientBalanceError{OrganizerID: "o1", Requested: dec("250"), Available: dec("200")}).Error()
	if msg != "insufficient balance: organizer o1 requested 250.00, available 200.00" {
		t.Errorf("message = %q", msg)
	}
}

func TestBulkPackage_EffectiveVotePrice(t *testing.T) {
	p := BulkPackage{VoteCount: 100, Price: dec("50.00")}
	if got := p.EffectiveVotePrice(); !got.Equal(dec("0.5")) {
		t.Errorf("EffectiveVotePrice() = %s, want 0.5", got)
	}
	if got := (BulkPackage{}).EffectiveVotePrice(); !got.IsZero() {
		t.Errorf("zero-vote package price = %s, want 0", got)
	}
}

func TestPaymentRecord_Validate(t *testing.T) {
	valid := func() PaymentRecord {
		return PaymentRecord{
			ID: "p1", EventID: "e1", CategoryID: "c1", NomineeID: "n1", Kind: PaymentVote,
			Amount: dec("10.00"), VoteCount: 10, Method: MethodMobileMoney, Status: PaymentCompleted,
		}
	}
	tests := []struct {
		name   string
		mutate func(*PaymentRecord)
		ok     bool
	}{
		{"valid", func(*PaymentRecord) {}, true},
		{"free vote", func(p *PaymentRecord) { p.Amount = dec("0") }, true},
		{"negative amount", func(p *PaymentRecord) { p.Amount = dec("-1") }, false},
		{"half a cent", func(p *PaymentRecord) { p.Amount = dec("0.005") }, false},
		{"sub-cent remainder", func(p *PaymentRecord) { p.Amount = dec("10.005") }, false},
		{"trailing zeros", func(p *PaymentRecord) { p.Amount = dec("10.5000") }, true},
		{"no nominee", func(p *PaymentRecord) { p.NomineeID = "" }, false},
		{"no votes", func(p *PaymentRecord) { p.VoteCount = 0 }, false},
		{"bulk without package", func(p *PaymentRecord) { p.Kind = PaymentBulk }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() = %v, want ErrValidation", err)
			}
		})
	}
}
