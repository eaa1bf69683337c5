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

// SubmitBookingInput is a direct booking of a service slot
type SubmitBookingInput struct {
	ServiceID           string `json:"service_id" validate:"required"`
	UserID              string `json:"user_id" validate:"required"`
	Date                string `json:"date" validate:"notblank,date"`
	Time                string `json:"time" validate:"notblank,clock"`
	DurationHours       int    `json:"duration_hours"`
	Address             string `json:"address" validate:"notblank"`
	ContactPhone        string `json:"contact_phone" validate:"notblank,phone"`
	SpecialInstructions string `json:"special_instructions"`
}

// RateInput is the review left on a completed booking
type RateInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// BookingService handles the booking lifecycle
type BookingService struct {
	runtime
	bookings  repositories.BookingRepository
	reviews   repositories.ReviewRepository
	services  repositories.ServiceRepository
	validator *validation.Validator
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookings repositories.BookingRepository,
	reviews repositories.ReviewRepository,
	services repositories.ServiceRepository,
	validator *validation.Validator,
) *BookingService {
	return &BookingService{
		runtime:   newRuntime(),
		bookings:  bookings,
		reviews:   reviews,
		services:  services,
		validator: validator,
	}
}

// SubmitBooking prices and stores a new pending booking. Nothing is stored
// when any check fails.
func (s *BookingService) SubmitBooking(ctx context.Context, input SubmitBookingInput) (booking *entities.Booking, err error) {
	defer func() { observability.RecordSubmission(ctx, s.metrics, "booking", outcome(err)) }()

	if err := s.validator.Struct("invalid booking", input); err != nil {
		return nil, err
	}
	if !lifecycle.IsAllowedDuration(input.DurationHours) {
		return nil, apperrors.NewInvalidDurationError(fmt.Sprintf("duration %d hours is not one of %v", input.DurationHours, lifecycle.AllowedDurations))
	}

	service, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scheduledAt, err := validation.ParseSlot(input.Date, input.Time, s.loc)
	if err != nil {
		return nil, err
	}
	if !scheduledAt.After(now) {
		return nil, apperrors.NewFieldValidationError("invalid booking: the slot is in the past", map[string]string{"date": "future"})
	}

	total, err := lifecycle.TotalAmount(service.PricePerHour, input.DurationHours)
	if err != nil {
		return nil, err
	}

	booking = &entities.Booking{
		ID:                  uuid.New().String(),
		ServiceID:           service.ID,
		UserID:              input.UserID,
		ProviderID:          service.ProviderID,
		Status:              entities.BookingStatusPending,
		ScheduledDate:       input.Date,
		ScheduledTime:       input.Time,
		ScheduledAt:         scheduledAt,
		DurationHours:       input.DurationHours,
		TotalAmount:         total,
		Address:             input.Address,
		ContactPhone:        input.ContactPhone,
		SpecialInstructions: input.SpecialInstructions,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("service_id", booking.ServiceID).
		Int64("total_amount", booking.TotalAmount).
		Msg("Booking created")

	s.publishBooking(ctx, entities.EventBookingCreated, booking)
	return booking, nil
}

// Confirm moves a pending booking to confirmed
func (s *BookingService) Confirm(ctx context.Context, id string) (*entities.Booking, error) {
	return s.transition(ctx, id, lifecycle.ActionConfirm, entities.EventBookingConfirmed)
}

// Start moves a confirmed booking to in progress
func (s *BookingService) Start(ctx context.Context, id string) (*entities.Booking, error) {
	return s.transition(ctx, id, lifecycle.ActionStart, entities.EventBookingStarted)
}

// Complete finishes an in-progress booking
func (s *BookingService) Complete(ctx context.Context, id string) (*entities.Booking, error) {
	return s.transition(ctx, id, lifecycle.ActionComplete, entities.EventBookingCompleted)
}

// Cancel cancels a confirmed booking before its scheduled time
func (s *BookingService) Cancel(ctx context.Context, id string) (*entities.Booking, error) {
	return s.transition(ctx, id, lifecycle.ActionCancel, entities.EventBookingCancelled)
}

// Rate reviews a completed booking and folds the rating into the service.
// The booking status does not change; a second rating is a conflict.
func (s *BookingService) Rate(ctx context.Context, id string, input RateInput) (*entities.Review, error) {
	if err := s.validator.Struct("invalid rating", input); err != nil {
		return nil, err
	}

	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := lifecycle.NextBookingStatus(booking.Status, lifecycle.ActionRate, s.context(booking, now)); err != nil {
		observability.RecordTransition(ctx, s.metrics, "booking", string(lifecycle.ActionRate), string(booking.Status), string(booking.Status), false)
		return nil, err
	}

	review := &entities.Review{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		ServiceID:  booking.ServiceID,
		ProviderID: booking.ProviderID,
		UserID:     booking.UserID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  now,
	}
	if err := s.reviews.CreateWithRating(ctx, review); err != nil {
		observability.RecordTransition(ctx, s.metrics, "booking", string(lifecycle.ActionRate), string(booking.Status), string(booking.Status), false)
		return nil, err
	}
	observability.RecordTransition(ctx, s.metrics, "booking", string(lifecycle.ActionRate), string(booking.Status), string(booking.Status), true)

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("service_id", booking.ServiceID).
		Int("rating", input.Rating).
		Msg("Booking rated")

	s.publish(ctx,
		entities.NewLifecycleEvent(entities.EventBookingRated, "booking", booking.ID, string(booking.Status), review, now),
		providers.BookingChannel(booking.ID), providers.UserChannel(booking.ProviderID),
	)
	s.publish(ctx,
		entities.NewLifecycleEvent(entities.EventServiceRated, "service", booking.ServiceID, "", review, now),
		providers.EventChannelCatalog,
	)
	return review, nil
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.Valid() {
		return nil, flag(ctx, "booking", booking.ID, string(booking.Status))
	}
	return booking, nil
}

// GetReview retrieves the review left on a booking
func (s *BookingService) GetReview(ctx context.Context, id string) (*entities.Review, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reviews.GetByBooking(ctx, booking.ID)
}

// ListUserBookings retrieves a user's bookings, latest scheduled first.
// Records with an unknown status are flagged and left out.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewFieldValidationError(fmt.Sprintf("unknown booking status %q", filter.Status), map[string]string{"status": "oneof"})
	}

	bookings, err := s.bookings.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	valid := bookings[:0]
	for _, b := range bookings {
		if !b.Status.Valid() {
			_ = flag(ctx, "booking", b.ID, string(b.Status))
			continue
		}
		valid = append(valid, b)
	}
	return valid, nil
}

// Actions lists the actions that would succeed on the booking right now
func (s *BookingService) Actions(ctx context.Context, id string) ([]lifecycle.Action, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return lifecycle.AllowedBookingActions(booking.Status, s.context(booking, s.now())), nil
}

func (s *BookingService) context(booking *entities.Booking, now time.Time) lifecycle.Context {
	return lifecycle.Context{Now: now, ScheduledAt: booking.ScheduledAt}
}

func (s *BookingService) transition(ctx context.Context, id string, action lifecycle.Action, eventType entities.EventType) (*entities.Booking, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := booking.Status
	next, err := lifecycle.NextBookingStatus(from, action, s.context(booking, now))
	if err != nil {
		observability.RecordTransition(ctx, s.metrics, "booking", string(action), string(from), string(from), false)
		return nil, err
	}

	expected := booking.Version
	booking.Status = next
	booking.UpdatedAt = now

	if err := s.bookings.Update(ctx, booking, expected); err != nil {
		observability.RecordTransition(ctx, s.metrics, "booking", string(action), string(from), string(next), false)
		return nil, err
	}
	observability.RecordTransition(ctx, s.metrics, "booking", string(action), string(from), string(next), true)

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("action", string(action)).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("Booking transitioned")

	s.publishBooking(ctx, eventType, booking)
	return booking, nil
}

func (s *BookingService) publishBooking(ctx context.Context, eventType entities.EventType, booking *entities.Booking) {
	event := entities.NewLifecycleEvent(eventType, "booking", booking.ID, string(booking.Status), booking, s.now())
	s.publish(ctx, event,
		providers.BookingChannel(booking.ID),
		providers.UserChannel(booking.UserID),
		providers.UserChannel(booking.ProviderID),
	)
}
