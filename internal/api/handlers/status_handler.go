package handlers

import (
	"net/http"

	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// StatusHandler serves the status registry
type StatusHandler struct {
	presenter
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(locale lifecycle.Locale) *StatusHandler {
	return &StatusHandler{presenter: newPresenter(locale)}
}

// GetStatus handles GET /api/statuses/{kind}/{status}
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	locale := h.localeFor(r)
	status := r.PathValue("status")

	switch r.PathValue("kind") {
	case "quotes", "quote":
		display, err := lifecycle.QuoteStatusDisplay(status, locale)
		if err != nil {
			respondUnknownStatus(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, display)
	case "bookings", "booking":
		display, err := lifecycle.BookingStatusDisplay(status, locale)
		if err != nil {
			respondUnknownStatus(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, display)
	default:
		respondWithError(w, http.StatusNotFound, "unknown status kind")
	}
}

// respondUnknownStatus answers a lookup of a status outside the vocabulary with 404
func respondUnknownStatus(w http.ResponseWriter, err error) {
	respondWithJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Type: string(apperrors.TypeOf(err))})
}
