package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	if booking.Version == 0 {
		booking.Version = 1
	}

	query, _, err := a.db.Insert("bookings").Rows(bookingRecord(booking)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("booking with id %s already exists", booking.ID))
		}
		return apperrors.NewInternalError("failed to create booking", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, _, err := a.db.From("bookings").Select(bookingColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row bookingRow
	err = a.client.DBX().GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return row.toEntity(), nil
}

// ListByUser retrieves a user's bookings ordered by scheduled time, latest first
func (a *BookingAdapter) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.db.From("bookings").Select(bookingColumns...).Where(goqu.Ex{"user_id": userID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("scheduled_at").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("scheduled_at").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("scheduled_at").Desc(), goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []bookingRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}

	bookings := make([]*entities.Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, rows[i].toEntity())
	}
	return bookings, nil
}

// Update writes the booking's status if the stored version equals expectedVersion
func (a *BookingAdapter) Update(ctx context.Context, booking *entities.Booking, expectedVersion int) error {
	query, _, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     string(booking.Status),
			"version":    expectedVersion + 1,
			"updated_at": booking.UpdatedAt,
		}).
		Where(goqu.Ex{"id": booking.ID, "version": expectedVersion}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return resolveMiss(ctx, a.client, a.db, "bookings", "booking", booking.ID)
	}

	booking.Version = expectedVersion + 1
	return nil
}

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateWithRating inserts the review and folds its rating into the service
// in one transaction
func (a *ReviewAdapter) CreateWithRating(ctx context.Context, review *entities.Review) error {
	insertQuery, _, err := a.db.Insert("reviews").Rows(goqu.Record{
		"id":          review.ID,
		"booking_id":  review.BookingID,
		"service_id":  review.ServiceID,
		"provider_id": review.ProviderID,
		"user_id":     review.UserID,
		"rating":      review.Rating,
		"comment":     review.Comment,
		"created_at":  review.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	ratingQuery, _, err := a.db.Update("services").
		Set(goqu.Record{
			"rating":       goqu.L("(rating * review_count + ?) / (review_count + 1)", review.Rating),
			"review_count": goqu.L("review_count + 1"),
			"updated_at":   review.CreatedAt,
		}).
		Where(goqu.Ex{"id": review.ServiceID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertQuery); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("booking %s has already been rated", review.BookingID))
		}
		return apperrors.NewInternalError("failed to create review", err)
	}

	result, err := tx.ExecContext(ctx, ratingQuery)
	if err != nil {
		return apperrors.NewInternalError("failed to update service rating", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", review.ServiceID))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit review", err)
	}
	return nil
}

// GetByBooking retrieves the review left on a booking
func (a *ReviewAdapter) GetByBooking(ctx context.Context, bookingID string) (*entities.Review, error) {
	query, _, err := a.db.From("reviews").Select(reviewColumns...).Where(goqu.Ex{"booking_id": bookingID}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var review entities.Review
	err = a.client.DBX().GetContext(ctx, &review, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review for booking %s not found", bookingID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review", err)
	}
	return &review, nil
}
