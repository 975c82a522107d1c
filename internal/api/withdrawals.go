package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/votecast/backoffice/internal/app/withdrawal"
	"github.com/votecast/backoffice/internal/domain"
)

// ─── Withdrawal API ─────────────────────────────────────────────────────────

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.WithdrawalFilter{
		OrganizerID: q.Get("organizer_id"),
		Status:      domain.WithdrawalStatus(q.Get("status")),
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeServiceError(w, r, domain.Invalid("limit", "must be a non-negative integer"))
		return
	}
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeServiceError(w, r, domain.Invalid("offset", "must be a non-negative integer"))
		return
	}
	list, err := s.svc.Withdrawals.List(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.WithdrawalRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"withdrawals": list})
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var in withdrawal.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	req, err := s.svc.Withdrawals.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleGetWithdrawal(w http.ResponseWriter, r *http.Request) {
	req, err := s.svc.Withdrawals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type adminAction struct {
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) handleApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body adminAction
	if err := decodeJSON(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	req, err := s.svc.Withdrawals.Approve(r.Context(), chi.URLParam(r, "id"), body.AdminID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body adminAction
	if err := decodeJSON(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	req, err := s.svc.Withdrawals.Reject(r.Context(), chi.URLParam(r, "id"), body.AdminID, body.Reason)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	req, err := s.svc.Withdrawals.ProcessPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
