package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
)

// QuoteService defines the quote operations the handler needs
type QuoteService interface {
	SubmitQuoteRequest(ctx context.Context, input services.SubmitQuoteInput) (*entities.Quote, error)
	SendQuote(ctx context.Context, id string, input services.SendQuoteInput) (*entities.Quote, error)
	AcceptQuote(ctx context.Context, id string, input services.AcceptQuoteInput) (*services.AcceptResult, error)
	RejectQuote(ctx context.Context, id string) (*entities.Quote, error)
	GetQuote(ctx context.Context, id string) (*entities.Quote, error)
	ListUserQuotes(ctx context.Context, userID string, filter repositories.QuoteFilter) ([]*entities.Quote, error)
}

// QuoteHandler handles quote requests
type QuoteHandler struct {
	presenter
	service QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(service QuoteService, locale lifecycle.Locale) *QuoteHandler {
	return &QuoteHandler{presenter: newPresenter(locale), service: service}
}

// SubmitQuote handles POST /api/quotes
func (h *QuoteHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	quote, err := h.service.SubmitQuoteRequest(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuote(w, r, http.StatusCreated, quote)
}

// GetQuote handles GET /api/quotes/{id}
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.GetQuote(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuote(w, r, http.StatusOK, quote)
}

// ListUserQuotes handles GET /api/users/{id}/quotes
func (h *QuoteHandler) ListUserQuotes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	filter := repositories.QuoteFilter{
		Status: entities.QuoteStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	quotes, err := h.service.ListUserQuotes(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	views := services.QuoteViews(quotes, h.localeFor(r), h.now())
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"quotes": views,
		"count":  len(views),
	})
}

// SendQuote handles POST /api/quotes/{id}/send
func (h *QuoteHandler) SendQuote(w http.ResponseWriter, r *http.Request) {
	var input services.SendQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	quote, err := h.service.SendQuote(r.Context(), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuote(w, r, http.StatusOK, quote)
}

// AcceptQuote handles POST /api/quotes/{id}/accept
func (h *QuoteHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	var input services.AcceptQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}

	result, err := h.service.AcceptQuote(r.Context(), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	locale, now := h.localeFor(r), h.now()
	quoteView, err := services.NewQuoteView(result.Quote, locale, now)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	bookingView, err := services.NewBookingView(result.Booking, locale, now)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"quote":   quoteView,
		"booking": bookingView,
	})
}

// RejectQuote handles POST /api/quotes/{id}/reject
func (h *QuoteHandler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.RejectQuote(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithQuote(w, r, http.StatusOK, quote)
}

func (h *QuoteHandler) respondWithQuote(w http.ResponseWriter, r *http.Request, status int, quote *entities.Quote) {
	view, err := services.NewQuoteView(quote, h.localeFor(r), h.now())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, status, view)
}
