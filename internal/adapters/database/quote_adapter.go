package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// QuoteAdapter implements the QuoteRepository interface
type QuoteAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQuoteAdapter creates a new quote adapter
func NewQuoteAdapter(client *postgres.Client) repositories.QuoteRepository {
	return &QuoteAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new quote
func (a *QuoteAdapter) Create(ctx context.Context, quote *entities.Quote) error {
	if quote.Version == 0 {
		quote.Version = 1
	}

	query, _, err := a.db.Insert("quotes").Rows(quoteRecord(quote)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("quote with id %s already exists", quote.ID))
		}
		return apperrors.NewInternalError("failed to create quote", err)
	}
	return nil
}

// GetByID retrieves a quote by ID
func (a *QuoteAdapter) GetByID(ctx context.Context, id string) (*entities.Quote, error) {
	query, _, err := a.db.From("quotes").Select(quoteColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row quoteRow
	err = a.client.DBX().GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("quote with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get quote", err)
	}
	return row.toEntity(), nil
}

// ListByUser retrieves a user's quotes, newest first
func (a *QuoteAdapter) ListByUser(ctx context.Context, userID string, filter repositories.QuoteFilter) ([]*entities.Quote, error) {
	ds := a.db.From("quotes").Select(quoteColumns...).Where(goqu.Ex{"user_id": userID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}

	ds = ds.Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.selectQuotes(ctx, ds)
}

// ListExpirable retrieves sent quotes whose deadline is at or before now
func (a *QuoteAdapter) ListExpirable(ctx context.Context, now time.Time) ([]*entities.Quote, error) {
	ds := a.db.From("quotes").Select(quoteColumns...).
		Where(
			goqu.Ex{"status": string(entities.QuoteStatusSent)},
			goqu.C("valid_until").IsNotNull(),
			goqu.C("valid_until").Lte(now),
		).
		Order(goqu.I("valid_until").Asc())

	return a.selectQuotes(ctx, ds)
}

func (a *QuoteAdapter) selectQuotes(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Quote, error) {
	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []quoteRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list quotes", err)
	}

	quotes := make([]*entities.Quote, 0, len(rows))
	for i := range rows {
		quotes = append(quotes, rows[i].toEntity())
	}
	return quotes, nil
}

func (a *QuoteAdapter) guardedUpdate(quote *entities.Quote, expectedVersion int) (string, error) {
	record := quoteRecord(quote)
	delete(record, "id")
	delete(record, "created_at")
	record["version"] = expectedVersion + 1

	query, _, err := a.db.Update("quotes").
		Set(record).
		Where(goqu.Ex{"id": quote.ID, "version": expectedVersion}).
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build update query", err)
	}
	return query, nil
}

// Update writes status and provider terms
func (a *QuoteAdapter) Update(ctx context.Context, quote *entities.Quote, expectedVersion int) error {
	query, err := a.guardedUpdate(quote, expectedVersion)
	if err != nil {
		return err
	}

	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return apperrors.NewInternalError("failed to update quote", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return resolveMiss(ctx, a.client, a.db, "quotes", "quote", quote.ID)
	}

	quote.Version = expectedVersion + 1
	return nil
}

// AcceptWithBooking writes the accepted quote and stores its booking in one transaction
func (a *QuoteAdapter) AcceptWithBooking(ctx context.Context, quote *entities.Quote, expectedVersion int, booking *entities.Booking) error {
	updateQuery, err := a.guardedUpdate(quote, expectedVersion)
	if err != nil {
		return err
	}
	if booking.Version == 0 {
		booking.Version = 1
	}
	insertQuery, _, err := a.db.Insert("bookings").Rows(bookingRecord(booking)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, updateQuery)
	if err != nil {
		return apperrors.NewInternalError("failed to update quote", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		_ = tx.Rollback()
		return resolveMiss(ctx, a.client, a.db, "quotes", "quote", quote.ID)
	}

	if _, err := tx.ExecContext(ctx, insertQuery); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("booking with id %s already exists", booking.ID))
		}
		return apperrors.NewInternalError("failed to create booking", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}

	quote.Version = expectedVersion + 1
	return nil
}
