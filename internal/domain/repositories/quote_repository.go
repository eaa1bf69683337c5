package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// QuoteFilter defines filters for listing quotes
type QuoteFilter struct {
	Status entities.QuoteStatus
	Limit  int
	Offset int
}

// QuoteRepository defines the interface for quote data operations.
//
// Update and AcceptWithBooking only apply when the stored version equals
// expectedVersion; otherwise they fail with a conflict error. On success the
// quote's Version is advanced.
type QuoteRepository interface {
	// Create stores a new quote
	Create(ctx context.Context, quote *entities.Quote) error

	// GetByID retrieves a quote by ID
	GetByID(ctx context.Context, id string) (*entities.Quote, error)

	// ListByUser retrieves a user's quotes, newest first
	ListByUser(ctx context.Context, userID string, filter QuoteFilter) ([]*entities.Quote, error)

	// ListExpirable retrieves sent quotes whose deadline is at or before now
	ListExpirable(ctx context.Context, now time.Time) ([]*entities.Quote, error)

	// Update writes status and provider terms
	Update(ctx context.Context, quote *entities.Quote, expectedVersion int) error

	// AcceptWithBooking writes the accepted quote and stores its booking in one step
	AcceptWithBooking(ctx context.Context, quote *entities.Quote, expectedVersion int, booking *entities.Booking) error
}
