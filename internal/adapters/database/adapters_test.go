package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewFromDB(mockDB), mock
}

func columnNames(cols []interface{}) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.(string)
	}
	return out
}

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func quoteRowValues(id, status string, version int64) []driver.Value {
	return []driver.Value{
		id, "s1", "user_1", "p1", status, "Weekly office cleaning",
		nil, "", nil, "",
		"2025-03-15", "123 Main St", "", "",
		"", version, fixedNow, fixedNow,
	}
}

func TestQuoteAdapter_GetByID(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(sqlmock.Sqlmock)
		wantType   apperrors.ErrorType
		check      func(*testing.T, *entities.Quote)
	}{
		{
			name: "found with null terms",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT .* FROM "quotes" WHERE \("id" = 'quote_1'\)`).
					WillReturnRows(sqlmock.NewRows(columnNames(quoteColumns)).AddRow(quoteRowValues("quote_1", "pending", 1)...))
			},
			check: func(t *testing.T, q *entities.Quote) {
				assert.Equal(t, entities.QuoteStatusPending, q.Status)
				assert.Nil(t, q.EstimatedPrice)
				assert.Nil(t, q.ValidUntil)
				assert.Equal(t, 1, q.Version)
			},
		},
		{
			name: "not found",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM "quotes"`).WillReturnRows(sqlmock.NewRows(columnNames(quoteColumns)))
			},
			wantType: apperrors.ErrorTypeNotFound,
		},
		{
			name: "unknown status is returned as stored",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM "quotes"`).
					WillReturnRows(sqlmock.NewRows(columnNames(quoteColumns)).AddRow(quoteRowValues("quote_1", "archived", 3)...))
			},
			check: func(t *testing.T, q *entities.Quote) {
				assert.False(t, q.Status.Valid())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := setupMockDB(t)
			tt.setupMocks(mock)

			q, err := NewQuoteAdapter(client).GetByID(context.Background(), "quote_1")
			if tt.wantType != "" {
				assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			} else {
				require.NoError(t, err)
				tt.check(t, q)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuoteAdapter_Update(t *testing.T) {
	quote := &entities.Quote{ID: "quote_2", Status: entities.QuoteStatusSent, UpdatedAt: fixedNow}

	tests := []struct {
		name        string
		setupMocks  func(sqlmock.Sqlmock)
		wantType    apperrors.ErrorType
		wantVersion int
	}{
		{
			name: "version matches",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE "quotes" SET .*"version"=2.* WHERE .*"id" = 'quote_2'.*"version" = 1`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantVersion: 2,
		},
		{
			name: "stale version",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE "quotes"`).WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectQuery(`SELECT COUNT\(\*\) FROM "quotes"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
			},
			wantType: apperrors.ErrorTypeConflict,
		},
		{
			name: "missing quote",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE "quotes"`).WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectQuery(`SELECT COUNT\(\*\) FROM "quotes"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
			},
			wantType: apperrors.ErrorTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := setupMockDB(t)
			tt.setupMocks(mock)

			q := *quote
			q.Version = 1
			err := NewQuoteAdapter(client).Update(context.Background(), &q, 1)
			if tt.wantType != "" {
				assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
				assert.Equal(t, 1, q.Version)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantVersion, q.Version)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuoteAdapter_AcceptWithBooking(t *testing.T) {
	quote := &entities.Quote{ID: "quote_1", Status: entities.QuoteStatusAccepted, BookingID: "booking_9", Version: 1}
	booking := &entities.Booking{ID: "booking_9", QuoteID: "quote_1", Status: entities.BookingStatusPending, ScheduledAt: fixedNow}

	t.Run("commits both writes", func(t *testing.T) {
		client, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quotes"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		q := *quote
		b := *booking
		require.NoError(t, NewQuoteAdapter(client).AcceptWithBooking(context.Background(), &q, 1, &b))
		assert.Equal(t, 2, q.Version)
		assert.Equal(t, 1, b.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale quote rolls back", func(t *testing.T) {
		client, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quotes"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "quotes"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

		q := *quote
		b := *booking
		err := NewQuoteAdapter(client).AcceptWithBooking(context.Background(), &q, 1, &b)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate booking id", func(t *testing.T) {
		client, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "quotes"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "bookings"`).WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		q := *quote
		b := *booking
		err := NewQuoteAdapter(client).AcceptWithBooking(context.Background(), &q, 1, &b)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuoteAdapter_ListExpirable(t *testing.T) {
	client, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM "quotes" WHERE .*"status" = 'sent'.*"valid_until" IS NOT NULL.*"valid_until" <= .* ORDER BY "valid_until" ASC`).
		WillReturnRows(sqlmock.NewRows(columnNames(quoteColumns)).AddRow(quoteRowValues("quote_4", "sent", 1)...))

	quotes, err := NewQuoteAdapter(client).ListExpirable(context.Background(), fixedNow)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "quote_4", quotes[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingAdapter_ListByUser(t *testing.T) {
	client, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM "bookings" WHERE .*"user_id" = 'user_1'.*"status" = 'confirmed'.* ORDER BY "scheduled_at" DESC, "id" ASC LIMIT 10`).
		WillReturnRows(sqlmock.NewRows(columnNames(bookingColumns)).AddRow(
			"booking_1", "s1", "user_1", "p1", "", "confirmed",
			"2025-03-13", "09:00", fixedNow, int64(4),
			int64(180), "123 Main St", "", "",
			int64(1), fixedNow, fixedNow,
		))

	bookings, err := NewBookingAdapter(client).ListByUser(context.Background(), "user_1", repositories.BookingFilter{
		Status: entities.BookingStatusConfirmed,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, int64(180), bookings[0].TotalAmount)
	assert.Equal(t, 4, bookings[0].DurationHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAdapter_CreateWithRating(t *testing.T) {
	review := &entities.Review{
		ID: "review_2", BookingID: "booking_3", ServiceID: "3", ProviderID: "p3",
		UserID: "user_1", Rating: 4, CreatedAt: fixedNow,
	}

	tests := []struct {
		name       string
		setupMocks func(sqlmock.Sqlmock)
		wantType   apperrors.ErrorType
	}{
		{
			name: "commits review and rating together",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO "reviews"`).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(`UPDATE "services" SET .*"review_count"=review_count \+ 1.* WHERE \("id" = '3'\)`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
		},
		{
			name: "second review for the booking",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO "reviews"`).WillReturnError(&pq.Error{Code: "23505"})
				m.ExpectRollback()
			},
			wantType: apperrors.ErrorTypeConflict,
		},
		{
			name: "missing service rolls the review back",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO "reviews"`).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(`UPDATE "services"`).WillReturnResult(sqlmock.NewResult(0, 0))
				m.ExpectRollback()
			},
			wantType: apperrors.ErrorTypeNotFound,
		},
		{
			name: "failed rating write rolls the review back",
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec(`INSERT INTO "reviews"`).WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(`UPDATE "services"`).WillReturnError(errors.New("connection reset"))
				m.ExpectRollback()
			},
			wantType: apperrors.ErrorTypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := setupMockDB(t)
			tt.setupMocks(mock)

			err := NewReviewAdapter(client).CreateWithRating(context.Background(), review)
			if tt.wantType != "" {
				assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestServiceAdapter_List(t *testing.T) {
	client, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "services" AS "s" WHERE .*"s"."category" = 'general-cleaning'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`INNER JOIN "providers" AS "p" .* ORDER BY "s"."price_per_hour" ASC, "s"."id" ASC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "category", "price_per_hour", "rating", "review_count",
			"provider_id", "images", "availability", "location", "created_at", "updated_at",
			"provider_name", "provider_avatar", "provider_rating", "provider_review_count",
			"provider_verified", "provider_location",
		}).AddRow(
			"s1", "Office Cleaning", "Complete office cleaning service", "general-cleaning", int64(45), 4.9, int64(89),
			"p1", "{/a.jpg,/b.jpg}", "{}", "Downtown", fixedNow, fixedNow,
			"Carlos Rodríguez", "", 4.9, int64(234), true, "Downtown",
		))

	services, total, err := NewServiceAdapter(client).List(context.Background(), repositories.ServiceFilter{
		Category: entities.CategoryGeneralCleaning,
		Sort:     repositories.SortByPriceLow,
		Limit:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, services, 1)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, services[0].Images)
	require.NotNil(t, services[0].Provider)
	assert.Equal(t, "Carlos Rodríguez", services[0].Provider.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageAdapter_Append(t *testing.T) {
	msg := &entities.Message{
		ID: "msg_6", ConversationID: "conv_1", SenderID: "user_1", ReceiverID: "p1",
		Type: entities.MessageTypeText, Content: "See you Monday", CreatedAt: fixedNow,
	}

	t.Run("assigns next sequence", func(t *testing.T) {
		client, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "last_sequence" FROM "conversations" WHERE \("id" = 'conv_1'\) FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"last_sequence"}).AddRow(int64(5)))
		mock.ExpectQuery(`FROM "messages" WHERE \("id" = 'msg_6'\)`).
			WillReturnRows(sqlmock.NewRows(columnNames(messageColumns)))
		mock.ExpectExec(`INSERT INTO "messages"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "conversations" SET .*"last_sequence"=6`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		stored, created, err := NewMessageAdapter(client).Append(context.Background(), msg)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(6), stored.Sequence)
		assert.Zero(t, msg.Sequence)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the stored copy on retry", func(t *testing.T) {
		client, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"last_sequence"}).AddRow(int64(6)))
		mock.ExpectQuery(`FROM "messages" WHERE \("id" = 'msg_6'\)`).
			WillReturnRows(sqlmock.NewRows(columnNames(messageColumns)).AddRow(
				"msg_6", "conv_1", "user_1", "p1", "text", "See you Monday",
				[]byte(`{"quote_id":"quote_1"}`), nil, int64(6), fixedNow,
			))
		mock.ExpectRollback()

		stored, created, err := NewMessageAdapter(client).Append(context.Background(), msg)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(6), stored.Sequence)
		assert.Equal(t, "quote_1", stored.Metadata["quote_id"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown conversation", func(t *testing.T) {
		client, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"last_sequence"}))
		mock.ExpectRollback()

		_, _, err := NewMessageAdapter(client).Append(context.Background(), msg)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageAdapter_MarkRead(t *testing.T) {
	client, mock := setupMockDB(t)
	mock.ExpectExec(`UPDATE "messages" SET "read_at"=.* WHERE .*"conversation_id" = 'conv_1'.*"receiver_id" = 'user_1'.*"read_at" IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewMessageAdapter(client).MarkRead(context.Background(), "conv_1", "user_1", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationAdapter_FindByParticipants(t *testing.T) {
	client, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM "conversations" WHERE .*participants @> .*user_1.*p1`).
		WillReturnRows(sqlmock.NewRows(columnNames(conversationColumns)).AddRow(
			"conv_1", "{user_1,p1}", "msg_5", fixedNow, int64(5), fixedNow, fixedNow,
		))

	conv, err := NewConversationAdapter(client).FindByParticipants(context.Background(), "user_1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user_1", "p1"}, conv.Participants)
	require.NotNil(t, conv.LastMessageAt)
	assert.Equal(t, int64(5), conv.LastSequence)
	assert.NoError(t, mock.ExpectationsWereMet())
}
