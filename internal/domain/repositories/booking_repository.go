package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create stores a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// ListByUser retrieves a user's bookings ordered by scheduled time, latest first
	ListByUser(ctx context.Context, userID string, filter BookingFilter) ([]*entities.Booking, error)

	// Update writes the booking's status if the stored version equals expectedVersion
	Update(ctx context.Context, booking *entities.Booking, expectedVersion int) error
}

// ReviewRepository defines the interface for booking reviews
type ReviewRepository interface {
	// CreateWithRating stores a review and folds its rating into the reviewed
	// service in one write. A second review for the same booking is a conflict,
	// and on any error neither the review nor the service changes.
	CreateWithRating(ctx context.Context, review *entities.Review) error

	// GetByBooking retrieves the review left on a booking
	GetByBooking(ctx context.Context, bookingID string) (*entities.Review, error)
}
