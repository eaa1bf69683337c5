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

// QuoteRepository implements repositories.QuoteRepository on a Store
type QuoteRepository struct {
	store *Store
}

// NewQuoteRepository creates a new in-memory quote repository
func NewQuoteRepository(store *Store) repositories.QuoteRepository {
	return &QuoteRepository{store: store}
}

// Create stores a new quote
func (r *QuoteRepository) Create(ctx context.Context, quote *entities.Quote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.quotes[quote.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("quote with id %s already exists", quote.ID))
	}
	if quote.Version == 0 {
		quote.Version = 1
	}
	r.store.quotes[quote.ID] = cloneQuote(quote)
	return nil
}

// GetByID retrieves a quote by ID
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*entities.Quote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	q, ok := r.store.quotes[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("quote with id %s not found", id))
	}
	return cloneQuote(q), nil
}

// ListByUser retrieves a user's quotes, newest first
func (r *QuoteRepository) ListByUser(ctx context.Context, userID string, filter repositories.QuoteFilter) ([]*entities.Quote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.Quote
	for _, q := range r.store.quotes {
		if q.UserID != userID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, cloneQuote(q))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// ListExpirable retrieves sent quotes whose deadline is at or before now
func (r *QuoteRepository) ListExpirable(ctx context.Context, now time.Time) ([]*entities.Quote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.Quote
	for _, q := range r.store.quotes {
		if q.Status != entities.QuoteStatusSent || q.ValidUntil == nil || q.ValidUntil.After(now) {
			continue
		}
		out = append(out, cloneQuote(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidUntil.Before(*out[j].ValidUntil) })
	return out, nil
}

// Update writes status and provider terms
func (r *QuoteRepository) Update(ctx context.Context, quote *entities.Quote, expectedVersion int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.checkVersion(quote.ID, expectedVersion); err != nil {
		return err
	}
	quote.Version = expectedVersion + 1
	r.store.quotes[quote.ID] = cloneQuote(quote)
	return nil
}

// AcceptWithBooking writes the accepted quote and stores its booking in one step
func (r *QuoteRepository) AcceptWithBooking(ctx context.Context, quote *entities.Quote, expectedVersion int, booking *entities.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.checkVersion(quote.ID, expectedVersion); err != nil {
		return err
	}
	if _, exists := r.store.bookings[booking.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("booking with id %s already exists", booking.ID))
	}
	if booking.Version == 0 {
		booking.Version = 1
	}
	quote.Version = expectedVersion + 1
	r.store.quotes[quote.ID] = cloneQuote(quote)
	r.store.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

// checkVersion must be called with the write lock held
func (r *QuoteRepository) checkVersion(id string, expected int) error {
	current, ok := r.store.quotes[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("quote with id %s not found", id))
	}
	if current.Version != expected {
		return apperrors.NewConflictError(fmt.Sprintf("quote %s was modified concurrently", id))
	}
	return nil
}
