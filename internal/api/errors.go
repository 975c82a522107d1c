package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/votecast/backoffice/internal/app/withdrawal"
	"github.com/votecast/backoffice/internal/domain"
)

// statusFor maps a service error to its HTTP status. The message of a
// known error is returned to the caller unchanged.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPercentage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSchemeExists),
		errors.Is(err, domain.ErrPaymentImmutable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance), errors.Is(err, domain.ErrNoActiveScheme):
		return http.StatusUnprocessableEntity
	case errors.Is(err, withdrawal.ErrPayoutFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with its mapped status. Unknown errors are
// logged with the request ID.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	writeError(w, status, err.Error())
}
