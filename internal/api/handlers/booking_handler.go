package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// BookingService defines the booking operations the handler needs
type BookingService interface {
	SubmitBooking(ctx context.Context, input services.SubmitBookingInput) (*entities.Booking, error)
	Confirm(ctx context.Context, id string) (*entities.Booking, error)
	Start(ctx context.Context, id string) (*entities.Booking, error)
	Complete(ctx context.Context, id string) (*entities.Booking, error)
	Cancel(ctx context.Context, id string) (*entities.Booking, error)
	Rate(ctx context.Context, id string, input services.RateInput) (*entities.Review, error)
	GetReview(ctx context.Context, id string) (*entities.Review, error)
	GetBooking(ctx context.Context, id string) (*entities.Booking, error)
	ListUserBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error)
	Actions(ctx context.Context, id string) ([]lifecycle.Action, error)
}

// BookingHandler handles booking requests
type BookingHandler struct {
	presenter
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService, locale lifecycle.Locale) *BookingHandler {
	return &BookingHandler{presenter: newPresenter(locale), service: service}
}

// SubmitBooking handles POST /api/bookings
func (h *BookingHandler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitBookingInput
	if !decodeJSON(w, r, &input) {
		return
	}

	booking, err := h.service.SubmitBooking(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithBooking(w, r, http.StatusCreated, booking)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithBooking(w, r, http.StatusOK, booking)
}

// ListUserBookings handles GET /api/users/{id}/bookings
func (h *BookingHandler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBookingFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	bookings, err := h.service.ListUserBookings(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	views := services.BookingViews(bookings, h.localeFor(r), h.now())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": views,
		"count":    len(views),
	})
}

// GetActions handles GET /api/bookings/{id}/actions
func (h *BookingHandler) GetActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.service.Actions(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"booking_id": r.PathValue("id"),
		"actions":    actions,
	})
}

// Confirm handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

// Start handles POST /api/bookings/{id}/start
func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

// Complete handles POST /api/bookings/{id}/complete
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// Cancel handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

// Rate handles POST /api/bookings/{id}/rate
func (h *BookingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var input services.RateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	review, err := h.service.Rate(r.Context(), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}

// GetReview handles GET /api/bookings/{id}/review
func (h *BookingHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.GetReview(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*entities.Booking, error)) {
	booking, err := apply(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithBooking(w, r, http.StatusOK, booking)
}

func (h *BookingHandler) respondWithBooking(w http.ResponseWriter, r *http.Request, status int, booking *entities.Booking) {
	view, err := services.NewBookingView(booking, h.localeFor(r), h.now())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, status, view)
}

func parseBookingFilter(r *http.Request) (repositories.BookingFilter, error) {
	query := r.URL.Query()
	filter := repositories.BookingFilter{Status: entities.BookingStatus(query.Get("status"))}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewFieldValidationError(name+" must be an RFC3339 timestamp", map[string]string{name: "datetime"})
		}
		*dst = &t
	}
	return filter, nil
}
