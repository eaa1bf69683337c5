package database

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/adapters/cache"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
)

type countingServiceRepo struct {
	gets  atomic.Int32
	lists atomic.Int32
}

func (r *countingServiceRepo) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	r.gets.Add(1)
	return &entities.Service{ID: id, Title: "Office Cleaning", PricePerHour: 45}, nil
}

func (r *countingServiceRepo) List(ctx context.Context, filter repositories.ServiceFilter) ([]*entities.Service, int, error) {
	r.lists.Add(1)
	return []*entities.Service{{ID: "s1"}, {ID: "1"}}, 2, nil
}

type stubReviewRepo struct {
	err error
}

func (r *stubReviewRepo) CreateWithRating(ctx context.Context, review *entities.Review) error {
	return r.err
}

func (r *stubReviewRepo) GetByBooking(ctx context.Context, bookingID string) (*entities.Review, error) {
	return &entities.Review{BookingID: bookingID}, nil
}

func TestCachedServiceAdapter_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo := &countingServiceRepo{}
	memCache := cache.NewMemoryAdapter()
	adapter := NewCachedServiceAdapter(repo, memCache, CacheTTLs{}, nil)

	svc, err := adapter.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Office Cleaning", svc.Title)

	_, err = memCache.Get(ctx, serviceCacheKey("s1"))
	require.NoError(t, err, "entry is written before the read returns")

	svc, err = adapter.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(45), svc.PricePerHour)
	assert.Equal(t, int32(1), repo.gets.Load())
}

func TestCachedReviewAdapter_RatingInvalidatesCatalog(t *testing.T) {
	ctx := context.Background()
	repo := &countingServiceRepo{}
	memCache := cache.NewMemoryAdapter()
	catalog := NewCachedServiceAdapter(repo, memCache, CacheTTLs{}, nil)
	filter := repositories.ServiceFilter{Category: entities.CategoryGeneralCleaning}

	_, total, err := catalog.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	_, err = catalog.GetByID(ctx, "s1")
	require.NoError(t, err)

	_, _, err = catalog.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.lists.Load())

	t.Run("failed write keeps entries", func(t *testing.T) {
		reviews := NewCachedReviewAdapter(&stubReviewRepo{err: errors.New("db down")}, memCache)
		require.Error(t, reviews.CreateWithRating(ctx, &entities.Review{BookingID: "booking_1", ServiceID: "s1", Rating: 5}))

		_, err := memCache.Get(ctx, serviceCacheKey("s1"))
		assert.NoError(t, err)
	})

	t.Run("committed write drops entries", func(t *testing.T) {
		reviews := NewCachedReviewAdapter(&stubReviewRepo{}, memCache)
		require.NoError(t, reviews.CreateWithRating(ctx, &entities.Review{BookingID: "booking_1", ServiceID: "s1", Rating: 5}))

		_, err := memCache.Get(ctx, serviceCacheKey("s1"))
		assert.Error(t, err)

		_, _, err = catalog.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int32(2), repo.lists.Load())
	})
}

func TestCachedProviderAdapter_WritesBeforeReturning(t *testing.T) {
	ctx := context.Background()
	memCache := cache.NewMemoryAdapter()
	adapter := NewCachedProviderAdapter(&staticProviderRepo{}, memCache, 0, nil)

	p, err := adapter.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = memCache.Get(ctx, providerCacheKey("p1"))
	assert.NoError(t, err)
}

type staticProviderRepo struct{}

func (r *staticProviderRepo) GetByID(ctx context.Context, id string) (*entities.DetailedProvider, error) {
	p := &entities.DetailedProvider{}
	p.ID = id
	return p, nil
}
