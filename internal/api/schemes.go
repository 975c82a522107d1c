package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/votecast/backoffice/internal/app/scheme"
	"github.com/votecast/backoffice/internal/domain"
)

// ─── Scheme API ─────────────────────────────────────────────────────────────

// schemeView adds the derived organizer percentage to a scheme.
type schemeView struct {
	domain.Scheme
	OrganizerPercentage decimal.Decimal `json:"organizer_percentage"`
}

func viewScheme(s domain.Scheme) schemeView {
	return schemeView{Scheme: s, OrganizerPercentage: s.OrganizerPercentage()}
}

func (s *Server) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Schemes.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]schemeView, 0, len(list))
	for _, sc := range list {
		out = append(out, viewScheme(sc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemes": out})
}

type createSchemeRequest struct {
	EventID                string              `json:"event_id"`
	VotePrice              decimal.Decimal     `json:"vote_price"`
	AdminPercentage        decimal.Decimal     `json:"admin_percentage"`
	BulkDiscountPercentage decimal.Decimal     `json:"bulk_discount_percentage"`
	MinBulkQuantity        int                 `json:"min_bulk_quantity"`
	Status                 domain.SchemeStatus `json:"status"`
}

func (s *Server) handleCreateScheme(w http.ResponseWriter, r *http.Request) {
	var req createSchemeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sc, err := s.svc.Schemes.Create(r.Context(), scheme.CreateInput(req))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewScheme(sc))
}

func (s *Server) handleResolveScheme(w http.ResponseWriter, r *http.Request) {
	sc, err := s.svc.Schemes.Resolve(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewScheme(sc))
}

func (s *Server) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	sc, err := s.svc.Schemes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewScheme(sc))
}

func (s *Server) handleSetAdminPercentage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminPercentage *decimal.Decimal `json:"admin_percentage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.AdminPercentage == nil {
		s.writeServiceError(w, r, domain.Invalid("admin_percentage", "is required"))
		return
	}
	sc, err := s.svc.Schemes.SetAdminPercentage(r.Context(), chi.URLParam(r, "id"), *req.AdminPercentage)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewScheme(sc))
}

func (s *Server) handleSetPricing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VotePrice              *decimal.Decimal `json:"vote_price"`
		BulkDiscountPercentage *decimal.Decimal `json:"bulk_discount_percentage"`
		MinBulkQuantity        *int             `json:"min_bulk_quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sc, err := s.svc.Schemes.SetPricing(r.Context(), chi.URLParam(r, "id"), scheme.PricingInput(req))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewScheme(sc))
}

func (s *Server) handleSetSchemeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.SchemeStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		s.writeServiceError(w, r, domain.Invalid("status", "unknown scheme status "+string(req.Status)))
		return
	}
	sc, err := s.svc.Schemes.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewScheme(sc))
}

func (s *Server) handleRetireScheme(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.svc.Schemes.Retire(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": deleted})
}
