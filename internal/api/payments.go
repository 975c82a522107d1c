package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/app/bulk"
	"github.com/votecast/backoffice/internal/domain"
)

// ─── Payment API ────────────────────────────────────────────────────────────
// Payment facts arrive from the payment processor. The back office never
// changes a completed record.

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var p domain.PaymentRecord
	if err := decodeJSON(r, &p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	if err := p.Validate(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.storePayment(w, r, p)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Catalog.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.PaymentStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		s.writeServiceError(w, r, domain.Invalid("status", "unknown payment status "+string(req.Status)))
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.svc.Catalog.UpdatePaymentStatus(r.Context(), id, req.Status); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	p, err := s.svc.Catalog.GetPayment(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type purchaseRequest struct {
	Quantity  int64                `json:"quantity"`
	Method    domain.PaymentMethod `json:"method"`
	Reference string               `json:"reference"`
	Status    domain.PaymentStatus `json:"status"`
}

func (req purchaseRequest) purchase() bulk.Purchase {
	return bulk.Purchase{Method: req.Method, Reference: req.Reference, Status: req.Status, PaidAt: time.Now().UTC()}
}

func (s *Server) handlePurchasePackage(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pkg, err := s.svc.Catalog.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	p, err := bulk.ResolveBulkPurchase(pkg, req.Quantity, req.purchase())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.storePayment(w, r, p)
}

type voteRequest struct {
	EventID    string               `json:"event_id"`
	CategoryID string               `json:"category_id"`
	NomineeID  string               `json:"nominee_id"`
	Votes      int64                `json:"votes"`
	Method     domain.PaymentMethod `json:"method"`
	Reference  string               `json:"reference"`
	Status     domain.PaymentStatus `json:"status"`
}

func (s *Server) handleQuoteVotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"event_id"`
		Votes   int64  `json:"votes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sc, err := s.svc.Schemes.Resolve(r.Context(), req.EventID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	amount, err := bulk.QuoteVotes(sc, req.Votes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_id":      req.EventID,
		"scheme_id":     sc.ID,
		"votes":         req.Votes,
		"vote_price":    sc.VotePrice,
		"discounted":    sc.BulkDiscountApplies(req.Votes),
		"amount":        amount,
		"per_vote_cost": amount.DivRound(decimal.NewFromInt(req.Votes), 4),
	})
}

func (s *Server) handlePurchaseVotes(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sc, err := s.svc.Schemes.Resolve(r.Context(), req.EventID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	p, err := bulk.ResolveVotePurchase(sc,
		bulk.VoteTarget{EventID: req.EventID, CategoryID: req.CategoryID, NomineeID: req.NomineeID},
		req.Votes,
		bulk.Purchase{Method: req.Method, Reference: req.Reference, Status: req.Status, PaidAt: time.Now().UTC()})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.storePayment(w, r, p)
}

func (s *Server) storePayment(w http.ResponseWriter, r *http.Request, p domain.PaymentRecord) {
	if err := s.svc.Catalog.InsertPayment(r.Context(), p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	stored, err := s.svc.Catalog.GetPayment(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("payment recorded",
		"payment_id", stored.ID, "event_id", stored.EventID, "kind", stored.Kind,
		"amount", stored.Amount.String(), "status", stored.Status)
	writeJSON(w, http.StatusCreated, stored)
}
