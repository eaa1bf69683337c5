package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// BookingRepository implements repositories.BookingRepository on a Store
type BookingRepository struct {
	store *Store
}

// NewBookingRepository creates a new in-memory booking repository
func NewBookingRepository(store *Store) repositories.BookingRepository {
	return &BookingRepository{store: store}
}

// Create stores a new booking
func (r *BookingRepository) Create(ctx context.Context, booking *entities.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.bookings[booking.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("booking with id %s already exists", booking.ID))
	}
	if booking.Version == 0 {
		booking.Version = 1
	}
	r.store.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.bookings[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	return cloneBooking(b), nil
}

// ListByUser retrieves a user's bookings ordered by scheduled time, latest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.Booking
	for _, b := range r.store.bookings {
		if b.UserID != userID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.From != nil && b.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && b.ScheduledAt.After(*filter.To) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// Update writes the booking's status if the stored version equals expectedVersion
func (r *BookingRepository) Update(ctx context.Context, booking *entities.Booking, expectedVersion int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.bookings[booking.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", booking.ID))
	}
	if current.Version != expectedVersion {
		return apperrors.NewConflictError(fmt.Sprintf("booking %s was modified concurrently", booking.ID))
	}
	booking.Version = expectedVersion + 1
	r.store.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

// ReviewRepository implements repositories.ReviewRepository on a Store
type ReviewRepository struct {
	store *Store
}

// NewReviewRepository creates a new in-memory review repository
func NewReviewRepository(store *Store) repositories.ReviewRepository {
	return &ReviewRepository{store: store}
}

// CreateWithRating stores a review and folds its rating into the service
// under one lock, so a failure leaves both untouched
func (r *ReviewRepository) CreateWithRating(ctx context.Context, review *entities.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.reviews[review.BookingID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("booking %s has already been rated", review.BookingID))
	}
	svc, ok := r.store.services[review.ServiceID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", review.ServiceID))
	}

	svc.Rating, svc.ReviewCount = svc.WithRating(review.Rating)
	svc.UpdatedAt = time.Now()
	c := *review
	r.store.reviews[review.BookingID] = &c
	return nil
}

// GetByBooking retrieves the review left on a booking
func (r *ReviewRepository) GetByBooking(ctx context.Context, bookingID string) (*entities.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rv, ok := r.store.reviews[bookingID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review for booking %s not found", bookingID))
	}
	c := *rv
	return &c, nil
}
