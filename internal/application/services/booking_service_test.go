package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

func validBookingInput() services.SubmitBookingInput {
	return services.SubmitBookingInput{
		ServiceID:     "s1",
		UserID:        "user_1",
		Date:          "2025-03-12",
		Time:          "10:00",
		DurationHours: 3,
		Address:       "123 Main St",
		ContactPhone:  "+1 (555) 123-4567",
	}
}

func TestBookingService_SubmitBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("prices the booking from the hourly rate", func(t *testing.T) {
		h := newHarness(t)
		booking, err := h.bookings.SubmitBooking(ctx, validBookingInput())
		require.NoError(t, err)

		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, entities.BookingStatusPending, booking.Status)
		assert.Equal(t, int64(135), booking.TotalAmount)
		assert.Equal(t, "p1", booking.ProviderID)
		assert.Equal(t, "2025-03-12", booking.ScheduledDate)

		stored, err := h.bookRepo.GetByID(ctx, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(135), stored.TotalAmount)
		h.bus.AssertCalled(t, "Publish", mock.Anything, "booking:"+booking.ID, eventOfType(entities.EventBookingCreated))
	})

	tests := []struct {
		name     string
		mutate   func(*services.SubmitBookingInput)
		wantType apperrors.ErrorType
	}{
		{"duration outside the allowed set", func(in *services.SubmitBookingInput) { in.DurationHours = 5 }, apperrors.ErrorTypeInvalidDuration},
		{"zero duration", func(in *services.SubmitBookingInput) { in.DurationHours = 0 }, apperrors.ErrorTypeInvalidDuration},
		{"blank address", func(in *services.SubmitBookingInput) { in.Address = "  " }, apperrors.ErrorTypeValidation},
		{"missing phone", func(in *services.SubmitBookingInput) { in.ContactPhone = "" }, apperrors.ErrorTypeValidation},
		{"malformed time", func(in *services.SubmitBookingInput) { in.Time = "10am" }, apperrors.ErrorTypeValidation},
		{"impossible date", func(in *services.SubmitBookingInput) { in.Date = "2025-02-30" }, apperrors.ErrorTypeValidation},
		{"slot in the past", func(in *services.SubmitBookingInput) { in.Date = "2025-03-09" }, apperrors.ErrorTypeValidation},
		{"unknown service", func(in *services.SubmitBookingInput) { in.ServiceID = "missing" }, apperrors.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			before, err := h.bookRepo.ListByUser(ctx, "user_1", repositories.BookingFilter{})
			require.NoError(t, err)

			input := validBookingInput()
			tt.mutate(&input)
			_, err = h.bookings.SubmitBooking(ctx, input)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)

			after, err := h.bookRepo.ListByUser(ctx, "user_1", repositories.BookingFilter{})
			require.NoError(t, err)
			assert.Len(t, after, len(before))
		})
	}
}

func TestBookingService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("pending booking runs to completion", func(t *testing.T) {
		h := newHarness(t)

		booking, err := h.bookings.Confirm(ctx, "booking_4")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)

		booking, err = h.bookings.Start(ctx, "booking_4")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusInProgress, booking.Status)

		booking, err = h.bookings.Complete(ctx, "booking_4")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
		assert.Equal(t, 4, booking.Version)

		h.bus.AssertCalled(t, "Publish", mock.Anything, "booking:booking_4", eventOfType(entities.EventBookingCompleted))
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Cancel(ctx, "booking_3")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))

		stored, err := h.bookRepo.GetByID(ctx, "booking_3")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCompleted, stored.Status)
		assert.Equal(t, 1, stored.Version)
	})

	t.Run("confirmed booking is cancelled before its slot", func(t *testing.T) {
		h := newHarness(t)
		booking, err := h.bookings.Cancel(ctx, "booking_1")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCancelled, booking.Status)
	})

	t.Run("cancellation closes once the slot starts", func(t *testing.T) {
		h := newHarness(t)
		h.bookings.SetClock(func() time.Time { return testNow.Add(4 * 24 * time.Hour) })
		_, err := h.bookings.Cancel(ctx, "booking_1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("unknown booking", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Confirm(ctx, "booking_404")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestBookingService_ConcurrentConfirm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.bookings.Confirm(ctx, "booking_4")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.IsType(err, apperrors.ErrorTypeConflict),
				apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejected)

	stored, err := h.bookRepo.GetByID(ctx, "booking_4")
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, stored.Status)
	assert.Equal(t, 2, stored.Version)
}

func TestBookingService_Rate(t *testing.T) {
	ctx := context.Background()

	t.Run("completed booking folds its rating into the service", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Complete(ctx, "booking_2")
		require.NoError(t, err)

		before, err := h.catalog.GetService(ctx, "s3")
		require.NoError(t, err)

		review, err := h.bookings.Rate(ctx, "booking_2", services.RateInput{Rating: 4, Comment: "On time"})
		require.NoError(t, err)
		assert.Equal(t, 4, review.Rating)
		assert.Equal(t, "s3", review.ServiceID)

		after, err := h.catalog.GetService(ctx, "s3")
		require.NoError(t, err)
		assert.Equal(t, before.ReviewCount+1, after.ReviewCount)
		wantRating, _ := before.WithRating(4)
		assert.InDelta(t, wantRating, after.Rating, 1e-9)

		stored, err := h.bookRepo.GetByID(ctx, "booking_2")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCompleted, stored.Status)

		h.bus.AssertCalled(t, "Publish", mock.Anything, "catalog", eventOfType(entities.EventServiceRated))
	})

	t.Run("second rating conflicts", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Rate(ctx, "booking_3", services.RateInput{Rating: 5})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("only completed bookings can be rated", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Rate(ctx, "booking_1", services.RateInput{Rating: 5})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("rating out of range", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Rate(ctx, "booking_3", services.RateInput{Rating: 6})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("failed rating write leaves no review behind", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.bookRepo.Create(ctx, &entities.Booking{
			ID: "booking_orphan", ServiceID: "retired", UserID: "user_1", ProviderID: "p1",
			Status: entities.BookingStatusCompleted, ScheduledAt: testNow.Add(-48 * time.Hour),
			DurationHours: 2, Version: 1, CreatedAt: testNow, UpdatedAt: testNow,
		}))

		_, err := h.bookings.Rate(ctx, "booking_orphan", services.RateInput{Rating: 5})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound), "got %v", err)

		_, err = h.bookings.GetReview(ctx, "booking_orphan")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound), "got %v", err)

		_, err = h.bookings.Rate(ctx, "booking_orphan", services.RateInput{Rating: 5})
		assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "retry must not see a stored review: %v", err)

		h.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, eventOfType(entities.EventBookingRated))
	})
}

func TestBookingService_GetReview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	review, err := h.bookings.GetReview(ctx, "booking_3")
	require.NoError(t, err)
	assert.Equal(t, "review_1", review.ID)
	assert.Equal(t, 5, review.Rating)

	_, err = h.bookings.GetReview(ctx, "booking_1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = h.bookings.GetReview(ctx, "ghost")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestBookingService_ListAndActions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.bookRepo.Create(ctx, &entities.Booking{
		ID: "booking_legacy", ServiceID: "s1", UserID: "user_1", ProviderID: "p1",
		Status: entities.BookingStatus("on_hold"), ScheduledAt: testNow, CreatedAt: testNow, UpdatedAt: testNow,
	}))

	bookings, err := h.bookings.ListUserBookings(ctx, "user_1", repositories.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, bookings, 5)

	_, err = h.bookings.GetBooking(ctx, "booking_legacy")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownStatus))

	confirmed, err := h.bookings.ListUserBookings(ctx, "user_1", repositories.BookingFilter{Status: entities.BookingStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "booking_1", confirmed[0].ID)

	_, err = h.bookings.ListUserBookings(ctx, "user_1", repositories.BookingFilter{Status: "on_hold"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	actions, err := h.bookings.Actions(ctx, "booking_1")
	require.NoError(t, err)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionCancel, lifecycle.ActionStart}, actions)

	actions, err = h.bookings.Actions(ctx, "booking_3")
	require.NoError(t, err)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionRate}, actions)
}
