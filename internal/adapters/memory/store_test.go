package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/adapters/memory"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/fixtures"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.Load(fixtures.Default(now, time.UTC))
	return store
}

func TestServiceRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewServiceRepository(seededStore(t))

	t.Run("get includes provider summary", func(t *testing.T) {
		svc, err := repo.GetByID(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(45), svc.PricePerHour)
		require.NotNil(t, svc.Provider)
		assert.Equal(t, "p1", svc.Provider.ID)
	})

	t.Run("missing service", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("filter by category and sort by price", func(t *testing.T) {
		items, total, err := repo.List(ctx, repositories.ServiceFilter{
			Category: entities.CategoryGeneralCleaning,
			Sort:     repositories.SortByPriceLow,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 2)
		assert.Equal(t, "s1", items[0].ID)
		assert.Equal(t, "1", items[1].ID)
	})

	t.Run("query and paging", func(t *testing.T) {
		items, total, err := repo.List(ctx, repositories.ServiceFilter{Query: "CLEANING", Limit: 1})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, 2)
		assert.Len(t, items, 1)
	})
}

func TestQuoteRepository_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQuoteRepository(seededStore(t))

	q, err := repo.GetByID(ctx, "quote_2")
	require.NoError(t, err)
	stale := *q

	q.Status = entities.QuoteStatusSent
	require.NoError(t, repo.Update(ctx, q, 1))
	assert.Equal(t, 2, q.Version)

	stale.Status = entities.QuoteStatusRejected
	err = repo.Update(ctx, &stale, 1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	stored, err := repo.GetByID(ctx, "quote_2")
	require.NoError(t, err)
	assert.Equal(t, entities.QuoteStatusSent, stored.Status)
}

func TestQuoteRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQuoteRepository(seededStore(t))

	q, err := repo.GetByID(ctx, "quote_1")
	require.NoError(t, err)
	q.Status = entities.QuoteStatusRejected

	again, err := repo.GetByID(ctx, "quote_1")
	require.NoError(t, err)
	assert.Equal(t, entities.QuoteStatusSent, again.Status)
}

func TestQuoteRepository_ListExpirable(t *testing.T) {
	repo := memory.NewQuoteRepository(seededStore(t))

	due, err := repo.ListExpirable(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "quote_4", due[0].ID)
}

func TestQuoteRepository_AcceptWithBooking(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	quotes := memory.NewQuoteRepository(store)
	bookings := memory.NewBookingRepository(store)

	q, err := quotes.GetByID(ctx, "quote_1")
	require.NoError(t, err)
	q.Status = entities.QuoteStatusAccepted
	q.BookingID = "booking_new"
	b := &entities.Booking{ID: "booking_new", QuoteID: q.ID, UserID: q.UserID, Status: entities.BookingStatusPending}

	require.NoError(t, quotes.AcceptWithBooking(ctx, q, 1, b))

	stored, err := bookings.GetByID(ctx, "booking_new")
	require.NoError(t, err)
	assert.Equal(t, "quote_1", stored.QuoteID)
	assert.Equal(t, 1, stored.Version)

	t.Run("stale accept stores nothing", func(t *testing.T) {
		other := &entities.Booking{ID: "booking_other", QuoteID: q.ID}
		err := quotes.AcceptWithBooking(ctx, q, 1, other)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		_, err = bookings.GetByID(ctx, "booking_other")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestQuoteRepository_ConcurrentUpdatesOneWins(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQuoteRepository(seededStore(t))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := repo.GetByID(ctx, "quote_3")
			if err != nil {
				return
			}
			q.Status = entities.QuoteStatusRejected
			if repo.Update(ctx, q, 1) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestBookingRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewBookingRepository(seededStore(t))

	t.Run("list latest first", func(t *testing.T) {
		items, err := repo.ListByUser(ctx, fixtures.DemoUserID, repositories.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, items, 5)
		assert.Equal(t, "booking_4", items[0].ID)
		assert.Equal(t, "booking_5", items[4].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		items, err := repo.ListByUser(ctx, fixtures.DemoUserID, repositories.BookingFilter{Status: entities.BookingStatusPending})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "booking_4", items[0].ID)
	})

	t.Run("stale update conflicts", func(t *testing.T) {
		b, err := repo.GetByID(ctx, "booking_4")
		require.NoError(t, err)
		b.Status = entities.BookingStatusConfirmed
		require.NoError(t, repo.Update(ctx, b, 1))
		err = repo.Update(ctx, b, 1)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	})

	t.Run("missing booking", func(t *testing.T) {
		err := repo.Update(ctx, &entities.Booking{ID: "ghost"}, 1)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestReviewRepository_OnePerBooking(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	repo := memory.NewReviewRepository(store)
	catalog := memory.NewServiceRepository(store)

	before, err := catalog.GetByID(ctx, "3")
	require.NoError(t, err)

	err = repo.CreateWithRating(ctx, &entities.Review{ID: "r2", BookingID: "booking_3", ServiceID: "3", Rating: 1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	after, err := catalog.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, before.ReviewCount, after.ReviewCount)
	assert.Equal(t, before.Rating, after.Rating)
}

func TestReviewRepository_CreateWithRating(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	repo := memory.NewReviewRepository(store)
	catalog := memory.NewServiceRepository(store)

	t.Run("folds the rating into the service", func(t *testing.T) {
		before, err := catalog.GetByID(ctx, "s3")
		require.NoError(t, err)

		require.NoError(t, repo.CreateWithRating(ctx, &entities.Review{ID: "r3", BookingID: "booking_2", ServiceID: "s3", Rating: 5}))

		got, err := repo.GetByBooking(ctx, "booking_2")
		require.NoError(t, err)
		assert.Equal(t, "r3", got.ID)

		after, err := catalog.GetByID(ctx, "s3")
		require.NoError(t, err)
		assert.Equal(t, before.ReviewCount+1, after.ReviewCount)
		wantRating, _ := before.WithRating(5)
		assert.InDelta(t, wantRating, after.Rating, 1e-9)
	})

	t.Run("unknown service stores nothing", func(t *testing.T) {
		err := repo.CreateWithRating(ctx, &entities.Review{ID: "r4", BookingID: "booking_1", ServiceID: "ghost", Rating: 4})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound), "got %v", err)

		_, err = repo.GetByBooking(ctx, "booking_1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

		require.NoError(t, repo.CreateWithRating(ctx, &entities.Review{ID: "r4", BookingID: "booking_1", ServiceID: "s1", Rating: 4}))
	})
}

func TestMessageRepository_Append(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	messages := memory.NewMessageRepository(store)
	conversations := memory.NewConversationRepository(store)

	msg := &entities.Message{ID: "msg_new", ConversationID: "conv_1", SenderID: fixtures.DemoUserID,
		ReceiverID: "p1", Type: entities.MessageTypeText, Content: "hello", CreatedAt: now}

	stored, created, err := messages.Append(ctx, msg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(6), stored.Sequence)

	conv, err := conversations.GetByID(ctx, "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "msg_new", conv.LastMessageID)
	assert.Equal(t, int64(6), conv.LastSequence)

	t.Run("retry with same id is deduplicated", func(t *testing.T) {
		again, created, err := messages.Append(ctx, msg)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(6), again.Sequence)

		all, err := messages.ListByConversation(ctx, "conv_1", 0, 0)
		require.NoError(t, err)
		assert.Len(t, all, 6)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, _, err := messages.Append(ctx, &entities.Message{ID: "x", ConversationID: "ghost"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestMessageRepository_ConcurrentAppendKeepsSequenceDense(t *testing.T) {
	ctx := context.Background()
	messages := memory.NewMessageRepository(seededStore(t))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = messages.Append(ctx, &entities.Message{
				ID: fmt.Sprintf("m-%d", i), ConversationID: "conv_1",
				SenderID: "p1", ReceiverID: fixtures.DemoUserID, CreatedAt: now,
			})
		}(i)
	}
	wg.Wait()

	all, err := messages.ListByConversation(ctx, "conv_1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 55)
	for i, m := range all {
		assert.Equal(t, int64(i+1), m.Sequence)
	}
}

func TestMessageRepository_ListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	messages := memory.NewMessageRepository(seededStore(t))

	after, err := messages.ListByConversation(ctx, "conv_1", 3, 0)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "msg_4", after[0].ID)

	changed, err := messages.MarkRead(ctx, "conv_1", fixtures.DemoUserID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	changed, err = messages.MarkRead(ctx, "conv_1", fixtures.DemoUserID, now)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestConversationRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewConversationRepository(seededStore(t))

	conv, err := repo.FindByParticipants(ctx, "p1", fixtures.DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, "conv_1", conv.ID)

	_, err = repo.FindByParticipants(ctx, "p2", fixtures.DemoUserID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	require.NoError(t, repo.Create(ctx, &entities.Conversation{ID: "conv_2",
		Participants: []string{fixtures.DemoUserID, "p2"}, CreatedAt: now}))
	list, err := repo.ListByParticipant(ctx, fixtures.DemoUserID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "conv_2", list[0].ID)
}
