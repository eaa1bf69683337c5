package database

import (
	"context"
	"encoding/json"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/fixtures"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// SeedResult counts rows written per table
type SeedResult map[string]int64

// SeedFixtures inserts the fixture set in one transaction. Rows whose ID is
// already present are left untouched, so seeding twice is harmless.
func SeedFixtures(ctx context.Context, client *postgres.Client, set *fixtures.Set) (SeedResult, error) {
	db := goqu.New("postgres", client.DB())
	result := SeedResult{}

	var batches []struct {
		table string
		rows  []interface{}
	}
	add := func(table string, rows []interface{}) {
		if len(rows) > 0 {
			batches = append(batches, struct {
				table string
				rows  []interface{}
			}{table, rows})
		}
	}

	var providerRows []interface{}
	for _, p := range set.Providers {
		profile, err := json.Marshal(p.ProviderProfile)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode provider profile", err)
		}
		providerRows = append(providerRows, goqu.Record{
			"id": p.ID, "name": p.Name, "avatar": p.Avatar, "rating": p.Rating,
			"review_count": p.ReviewCount, "verified": p.Verified, "description": p.Description,
			"services_count": p.ServicesCount, "location": p.Location, "joined_date": p.JoinedDate,
			"profile": string(profile),
		})
	}
	add("providers", providerRows)

	var serviceRows []interface{}
	for _, s := range set.Services {
		serviceRows = append(serviceRows, goqu.Record{
			"id": s.ID, "title": s.Title, "description": s.Description, "category": string(s.Category),
			"price_per_hour": s.PricePerHour, "rating": s.Rating, "review_count": s.ReviewCount,
			"provider_id": s.ProviderID, "images": pq.StringArray(s.Images),
			"availability": pq.StringArray(s.Availability), "location": s.Location,
			"created_at": s.CreatedAt, "updated_at": s.UpdatedAt,
		})
	}
	add("services", serviceRows)

	var quoteRows []interface{}
	for _, q := range set.Quotes {
		quoteRows = append(quoteRows, quoteRecord(q))
	}
	add("quotes", quoteRows)

	var bookingRows []interface{}
	for _, b := range set.Bookings {
		bookingRows = append(bookingRows, bookingRecord(b))
	}
	add("bookings", bookingRows)

	var reviewRows []interface{}
	for _, r := range set.Reviews {
		reviewRows = append(reviewRows, goqu.Record{
			"id": r.ID, "booking_id": r.BookingID, "service_id": r.ServiceID, "provider_id": r.ProviderID,
			"user_id": r.UserID, "rating": r.Rating, "comment": r.Comment, "created_at": r.CreatedAt,
		})
	}
	add("reviews", reviewRows)

	var conversationRows []interface{}
	for _, c := range set.Conversations {
		conversationRows = append(conversationRows, goqu.Record{
			"id": c.ID, "participants": pq.StringArray(c.Participants), "last_message_id": c.LastMessageID,
			"last_message_at": nullTime(c.LastMessageAt), "last_sequence": c.LastSequence,
			"created_at": c.CreatedAt, "updated_at": c.UpdatedAt,
		})
	}
	add("conversations", conversationRows)

	var messageRows []interface{}
	for _, m := range set.Messages {
		record, err := messageRecord(m)
		if err != nil {
			return nil, err
		}
		messageRows = append(messageRows, record)
	}
	add("messages", messageRows)

	tx, err := client.BeginTxx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, batch := range batches {
		query, _, err := db.Insert(batch.table).Rows(batch.rows...).OnConflict(goqu.DoNothing()).ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build seed query for "+batch.table, err)
		}
		res, err := tx.ExecContext(ctx, query)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to seed "+batch.table, err)
		}
		n, _ := res.RowsAffected()
		result[batch.table] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit seed transaction", err)
	}

	log.Info().Interface("rows", result).Msg("Seeded fixtures")
	return result, nil
}
