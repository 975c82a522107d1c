package api

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/votecast/backoffice/internal/app/ledger"
	"github.com/votecast/backoffice/internal/domain"
)

// ─── Report API ─────────────────────────────────────────────────────────────

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if !slices.Contains(ledger.ViewNames, view) {
		writeError(w, http.StatusNotFound, "unknown report "+view)
		return
	}
	f, err := paymentFilter(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	l, err := s.svc.Ledger.Report(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rollups, _ := ledger.View(l, view)
	writeJSON(w, http.StatusOK, map[string]any{
		"view":    view,
		"rollups": rollups,
		"total":   l.Total(),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Balances.Balance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// paymentFilter reads event_id, organizer_id, from and to query parameters.
func paymentFilter(r *http.Request) (domain.PaymentFilter, error) {
	q := r.URL.Query()
	return ledger.ParseFilter(ledger.FilterInput{
		EventID:     q.Get("event_id"),
		OrganizerID: q.Get("organizer_id"),
		From:        q.Get("from"),
		To:          q.Get("to"),
	})
}
