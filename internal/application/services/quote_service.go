package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// SubmitQuoteInput is a customer's request for a quote
type SubmitQuoteInput struct {
	ServiceID           string `json:"service_id" validate:"required"`
	UserID              string `json:"user_id" validate:"required"`
	Description         string `json:"description" validate:"notblank"`
	PreferredDate       string `json:"preferred_date" validate:"omitempty,date"`
	Address             string `json:"address" validate:"notblank"`
	ContactPhone        string `json:"contact_phone" validate:"omitempty,phone"`
	SpecialInstructions string `json:"special_instructions"`
}

// SendQuoteInput carries the provider's terms
type SendQuoteInput struct {
	EstimatedPrice    int64      `json:"estimated_price" validate:"gt=0"`
	EstimatedDuration string     `json:"estimated_duration"`
	ValidUntil        *time.Time `json:"valid_until"`
	Notes             string     `json:"notes"`
}

// AcceptQuoteInput schedules the booking an accepted quote turns into.
// Date defaults to the quote's preferred date.
type AcceptQuoteInput struct {
	Date          string `json:"date" validate:"omitempty,date"`
	Time          string `json:"time" validate:"required,clock"`
	DurationHours int    `json:"duration_hours"`
}

// AcceptResult is the accepted quote and the booking created with it
type AcceptResult struct {
	Quote   *entities.Quote   `json:"quote"`
	Booking *entities.Booking `json:"booking"`
}

// QuoteService handles the quote lifecycle
type QuoteService struct {
	runtime
	quotes    repositories.QuoteRepository
	services  repositories.ServiceRepository
	validator *validation.Validator
}

// NewQuoteService creates a new quote service
func NewQuoteService(quotes repositories.QuoteRepository, services repositories.ServiceRepository, validator *validation.Validator) *QuoteService {
	return &QuoteService{
		runtime:   newRuntime(),
		quotes:    quotes,
		services:  services,
		validator: validator,
	}
}

// SubmitQuoteRequest stores a new pending quote. Text fields are stored as given.
func (s *QuoteService) SubmitQuoteRequest(ctx context.Context, input SubmitQuoteInput) (quote *entities.Quote, err error) {
	defer func() { observability.RecordSubmission(ctx, s.metrics, "quote", outcome(err)) }()

	if err := s.validator.Struct("invalid quote request", input); err != nil {
		return nil, err
	}

	service, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quote = &entities.Quote{
		ID:                  uuid.New().String(),
		ServiceID:           service.ID,
		UserID:              input.UserID,
		ProviderID:          service.ProviderID,
		Status:              entities.QuoteStatusPending,
		Description:         input.Description,
		PreferredDate:       input.PreferredDate,
		Address:             input.Address,
		ContactPhone:        input.ContactPhone,
		SpecialInstructions: input.SpecialInstructions,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("quote_id", quote.ID).
		Str("service_id", quote.ServiceID).
		Str("user_id", quote.UserID).
		Msg("Quote requested")

	s.publishQuote(ctx, entities.EventQuoteSubmitted, quote)
	return quote, nil
}

// SendQuote records the provider's terms and moves the quote to sent
func (s *QuoteService) SendQuote(ctx context.Context, id string, input SendQuoteInput) (*entities.Quote, error) {
	if err := s.validator.Struct("invalid quote terms", input); err != nil {
		return nil, err
	}
	now := s.now()
	if input.ValidUntil != nil && !input.ValidUntil.After(now) {
		return nil, apperrors.NewFieldValidationError("invalid quote terms: valid_until must be in the future",
			map[string]string{"valid_until": "future"})
	}

	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.apply(ctx, quote, lifecycle.ActionSend, now, func(q *entities.Quote) {
		price := input.EstimatedPrice
		q.EstimatedPrice = &price
		q.EstimatedDuration = input.EstimatedDuration
		q.ValidUntil = input.ValidUntil
		q.Notes = input.Notes
	})
	if err != nil {
		return nil, err
	}

	s.publishQuote(ctx, entities.EventQuoteSent, quote)
	return quote, nil
}

// AcceptQuote accepts a sent quote and creates its pending booking in the same write
func (s *QuoteService) AcceptQuote(ctx context.Context, id string, input AcceptQuoteInput) (*AcceptResult, error) {
	if err := s.validator.Struct("invalid acceptance", input); err != nil {
		return nil, err
	}

	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := quote.Status
	next, err := lifecycle.NextQuoteStatus(quote.Status, lifecycle.ActionAccept, lifecycle.Context{Now: now, ValidUntil: quote.ValidUntil})
	if err != nil {
		observability.RecordTransition(ctx, s.metrics, "quote", string(lifecycle.ActionAccept), string(from), string(from), false)
		return nil, err
	}

	if !lifecycle.IsAllowedDuration(input.DurationHours) {
		return nil, apperrors.NewInvalidDurationError(fmt.Sprintf("duration %d hours is not one of %v", input.DurationHours, lifecycle.AllowedDurations))
	}

	date := input.Date
	if date == "" {
		date = quote.PreferredDate
	}
	if date == "" {
		return nil, apperrors.NewFieldValidationError("invalid acceptance: date is required", map[string]string{"date": "required"})
	}
	scheduledAt, err := validation.ParseSlot(date, input.Time, s.loc)
	if err != nil {
		return nil, err
	}
	if !scheduledAt.After(now) {
		return nil, apperrors.NewFieldValidationError("invalid acceptance: the slot is in the past", map[string]string{"date": "future"})
	}

	service, err := s.services.GetByID(ctx, quote.ServiceID)
	if err != nil {
		return nil, err
	}
	total, err := lifecycle.TotalAmount(service.PricePerHour, input.DurationHours)
	if err != nil {
		return nil, err
	}

	booking := &entities.Booking{
		ID:                  uuid.New().String(),
		ServiceID:           quote.ServiceID,
		UserID:              quote.UserID,
		ProviderID:          quote.ProviderID,
		QuoteID:             quote.ID,
		Status:              entities.BookingStatusPending,
		ScheduledDate:       date,
		ScheduledTime:       input.Time,
		ScheduledAt:         scheduledAt,
		DurationHours:       input.DurationHours,
		TotalAmount:         total,
		Address:             quote.Address,
		ContactPhone:        quote.ContactPhone,
		SpecialInstructions: quote.SpecialInstructions,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	expected := quote.Version
	quote.Status = next
	quote.BookingID = booking.ID
	quote.UpdatedAt = now

	if err := s.quotes.AcceptWithBooking(ctx, quote, expected, booking); err != nil {
		observability.RecordTransition(ctx, s.metrics, "quote", string(lifecycle.ActionAccept), string(from), string(next), false)
		return nil, err
	}
	observability.RecordTransition(ctx, s.metrics, "quote", string(lifecycle.ActionAccept), string(from), string(next), true)

	observability.LoggerFromContext(ctx).Info().
		Str("quote_id", quote.ID).
		Str("booking_id", booking.ID).
		Int64("total_amount", booking.TotalAmount).
		Msg("Quote accepted")

	s.publishQuote(ctx, entities.EventQuoteAccepted, quote)
	s.publish(ctx,
		entities.NewLifecycleEvent(entities.EventBookingCreated, "booking", booking.ID, string(booking.Status), booking, now),
		providers.BookingChannel(booking.ID), providers.UserChannel(booking.UserID), providers.UserChannel(booking.ProviderID),
	)

	return &AcceptResult{Quote: quote, Booking: booking}, nil
}

// RejectQuote declines a sent quote
func (s *QuoteService) RejectQuote(ctx context.Context, id string) (*entities.Quote, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, quote, lifecycle.ActionReject, s.now(), nil); err != nil {
		return nil, err
	}
	s.publishQuote(ctx, entities.EventQuoteRejected, quote)
	return quote, nil
}

// ExpireDue moves every sent quote past its deadline to expired and returns
// how many it moved. Quotes another writer changed first are skipped.
func (s *QuoteService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.quotes.ListExpirable(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, quote := range due {
		err := s.apply(ctx, quote, lifecycle.ActionExpire, now, nil)
		switch {
		case err == nil:
			expired++
			s.publishQuote(ctx, entities.EventQuoteExpired, quote)
		case apperrors.IsType(err, apperrors.ErrorTypeConflict),
			apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition),
			apperrors.IsType(err, apperrors.ErrorTypeNotFound):
			observability.LoggerFromContext(ctx).Debug().Err(err).Str("quote_id", quote.ID).Msg("Skipped quote during expiry sweep")
		default:
			return expired, err
		}
	}
	return expired, nil
}

// GetQuote retrieves a quote by ID
func (s *QuoteService) GetQuote(ctx context.Context, id string) (*entities.Quote, error) {
	quote, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quote.Status.Valid() {
		return nil, flag(ctx, "quote", quote.ID, string(quote.Status))
	}
	return quote, nil
}

// ListUserQuotes retrieves a user's quotes, newest first. Records with an
// unknown status are flagged and left out.
func (s *QuoteService) ListUserQuotes(ctx context.Context, userID string, filter repositories.QuoteFilter) ([]*entities.Quote, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewFieldValidationError(fmt.Sprintf("unknown quote status %q", filter.Status), map[string]string{"status": "oneof"})
	}

	quotes, err := s.quotes.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	valid := quotes[:0]
	for _, q := range quotes {
		if !q.Status.Valid() {
			_ = flag(ctx, "quote", q.ID, string(q.Status))
			continue
		}
		valid = append(valid, q)
	}
	return valid, nil
}

// AllowedActions lists the actions that would succeed on the quote right now
func (s *QuoteService) AllowedActions(ctx context.Context, id string) ([]lifecycle.Action, error) {
	quote, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	return lifecycle.AllowedQuoteActions(quote.Status, lifecycle.Context{Now: s.now(), ValidUntil: quote.ValidUntil}), nil
}

// apply runs one transition through the table and writes it with the version
// that was read. mutate may set fields that travel with the new status.
func (s *QuoteService) apply(ctx context.Context, quote *entities.Quote, action lifecycle.Action, now time.Time, mutate func(*entities.Quote)) error {
	from := quote.Status
	next, err := lifecycle.NextQuoteStatus(from, action, lifecycle.Context{Now: now, ValidUntil: quote.ValidUntil})
	if err != nil {
		observability.RecordTransition(ctx, s.metrics, "quote", string(action), string(from), string(from), false)
		return err
	}

	updated := *quote
	updated.Status = next
	updated.UpdatedAt = now
	if mutate != nil {
		mutate(&updated)
	}

	if err := s.quotes.Update(ctx, &updated, quote.Version); err != nil {
		observability.RecordTransition(ctx, s.metrics, "quote", string(action), string(from), string(next), false)
		return err
	}
	observability.RecordTransition(ctx, s.metrics, "quote", string(action), string(from), string(next), true)

	observability.LoggerFromContext(ctx).Info().
		Str("quote_id", quote.ID).
		Str("action", string(action)).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("Quote transitioned")

	*quote = updated
	return nil
}

func (s *QuoteService) publishQuote(ctx context.Context, eventType entities.EventType, quote *entities.Quote) {
	event := entities.NewLifecycleEvent(eventType, "quote", quote.ID, string(quote.Status), quote, s.now())
	s.publish(ctx, event,
		providers.QuoteChannel(quote.ID),
		providers.UserChannel(quote.UserID),
		providers.UserChannel(quote.ProviderID),
	)
}
