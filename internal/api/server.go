// Package api provides the JSON admin API of the back office.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/votecast/backoffice/internal/app/ledger"
	"github.com/votecast/backoffice/internal/app/scheme"
	"github.com/votecast/backoffice/internal/app/withdrawal"
	"github.com/votecast/backoffice/internal/domain"
)

// PaymentStore accepts payment facts from the payment processor.
type PaymentStore interface {
	InsertPayment(ctx context.Context, p domain.PaymentRecord) error
	GetPayment(ctx context.Context, id string) (domain.PaymentRecord, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	GetPackage(ctx context.Context, id string) (domain.BulkPackage, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the back-office services the API exposes.
type Services struct {
	Schemes     *scheme.Registry
	Ledger      *ledger.Service
	Balances    *ledger.BalanceCalculator
	Withdrawals *withdrawal.Machine
	Catalog     PaymentStore
	Health      Pinger
}

// Server is the admin HTTP API server.
type Server struct {
	svc            Services
	logger         *slog.Logger
	metricsPath    string
	requestTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger.With("component", "api"), requestTimeout: 30 * time.Second}
}

// EnableMetrics mounts the Prometheus handler at path.
func (s *Server) EnableMetrics(path string) {
	if path == "" {
		path = "/metrics"
	}
	s.metricsPath = path
}

// SetRequestTimeout bounds each request.
func (s *Server) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		s.requestTimeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/schemes", func(r chi.Router) {
			r.Get("/", s.handleListSchemes)
			r.Post("/", s.handleCreateScheme)
			r.Get("/resolve", s.handleResolveScheme)
			r.Get("/{id}", s.handleGetScheme)
			r.Put("/{id}/admin-percentage", s.handleSetAdminPercentage)
			r.Put("/{id}/pricing", s.handleSetPricing)
			r.Put("/{id}/status", s.handleSetSchemeStatus)
			r.Delete("/{id}", s.handleRetireScheme)
		})

		r.Post("/payments", s.handleRecordPayment)
		r.Get("/payments/{id}", s.handleGetPayment)
		r.Put("/payments/{id}/status", s.handleSetPaymentStatus)
		r.Post("/packages/{id}/purchase", s.handlePurchasePackage)
		r.Post("/votes/quote", s.handleQuoteVotes)
		r.Post("/votes/purchase", s.handlePurchaseVotes)

		r.Get("/reports/{view}", s.handleReport)
		r.Get("/organizers/{id}/balance", s.handleBalance)

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", s.handleListWithdrawals)
			r.Post("/", s.handleCreateWithdrawal)
			r.Get("/{id}", s.handleGetWithdrawal)
			r.Post("/{id}/approve", s.handleApproveWithdrawal)
			r.Post("/{id}/reject", s.handleRejectWithdrawal)
			r.Post("/{id}/process", s.handleProcessWithdrawal)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		if err := s.svc.Health.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable: "+err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("body", err.Error())
	}
	return nil
}

// corsMiddleware adds CORS headers for the admin UI.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
