package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
)

// CacheTTLs controls how long catalog reads stay cached
type CacheTTLs struct {
	Service time.Duration
	List    time.Duration
}

// DefaultCacheTTLs are used when a TTL is left zero
var DefaultCacheTTLs = CacheTTLs{Service: 5 * time.Minute, List: 3 * time.Minute}

// Cache key generators
func serviceCacheKey(id string) string {
	return fmt.Sprintf("service:%s", id)
}

func servicesListCacheKey(f repositories.ServiceFilter) string {
	return fmt.Sprintf("services:list:%s:%s:%s:%d:%d:%s:%d:%d",
		f.Category, f.Query, f.ProviderID, f.MinPrice, f.MaxPrice, f.Sort, f.Limit, f.Offset)
}

func providerCacheKey(id string) string {
	return fmt.Sprintf("provider:%s", id)
}

const servicesListPattern = "services:list:*"

type cachedServiceList struct {
	Services   []*entities.Service `json:"services"`
	TotalCount int                 `json:"total_count"`
}

// CachedServiceAdapter wraps a ServiceRepository with read-through caching
type CachedServiceAdapter struct {
	adapter repositories.ServiceRepository
	cache   providers.CacheProvider
	ttl     CacheTTLs
	metrics *observability.Metrics
}

// NewCachedServiceAdapter creates a new cached service adapter
func NewCachedServiceAdapter(adapter repositories.ServiceRepository, cache providers.CacheProvider, ttl CacheTTLs, metrics *observability.Metrics) repositories.ServiceRepository {
	if ttl.Service <= 0 {
		ttl.Service = DefaultCacheTTLs.Service
	}
	if ttl.List <= 0 {
		ttl.List = DefaultCacheTTLs.List
	}
	return &CachedServiceAdapter{
		adapter: adapter,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
	}
}

// GetByID retrieves a service by ID with caching
func (a *CachedServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	cacheKey := serviceCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var service entities.Service
		if err := json.Unmarshal(cached, &service); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "service")
			return &service, nil
		}
		log.Warn().Err(err).Str("service_id", id).Msg("Failed to unmarshal cached service")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "service")

	service, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.store(ctx, cacheKey, service, a.ttl.Service)
	return service, nil
}

// List returns one page of matching services with caching
func (a *CachedServiceAdapter) List(ctx context.Context, filter repositories.ServiceFilter) ([]*entities.Service, int, error) {
	cacheKey := servicesListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var result cachedServiceList
		if err := json.Unmarshal(cached, &result); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "services:list")
			return result.Services, result.TotalCount, nil
		}
		log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to unmarshal cached service list")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "services:list")

	services, total, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	a.store(ctx, cacheKey, cachedServiceList{Services: services, TotalCount: total}, a.ttl.List)
	return services, total, nil
}

// store writes the cache before the read returns, so a later invalidation
// always lands after it
func (a *CachedServiceAdapter) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to marshal value for cache")
		return
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache value")
	}
}

// CachedProviderAdapter wraps a ProviderRepository with read-through caching
type CachedProviderAdapter struct {
	adapter repositories.ProviderRepository
	cache   providers.CacheProvider
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedProviderAdapter creates a new cached provider adapter
func NewCachedProviderAdapter(adapter repositories.ProviderRepository, cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) repositories.ProviderRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTLs.Service
	}
	return &CachedProviderAdapter{adapter: adapter, cache: cache, ttl: ttl, metrics: metrics}
}

// GetByID retrieves a provider by ID with caching
func (a *CachedProviderAdapter) GetByID(ctx context.Context, id string) (*entities.DetailedProvider, error) {
	cacheKey := providerCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var provider entities.DetailedProvider
		if err := json.Unmarshal(cached, &provider); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "provider")
			return &provider, nil
		}
		log.Warn().Err(err).Str("provider_id", id).Msg("Failed to unmarshal cached provider")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "provider")

	provider, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(provider); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, a.ttl); err != nil {
			log.Warn().Err(err).Str("provider_id", id).Msg("Failed to cache provider")
		}
	}
	return provider, nil
}

// CachedReviewAdapter drops the cached catalog entries a committed review
// makes stale
type CachedReviewAdapter struct {
	adapter repositories.ReviewRepository
	cache   providers.CacheProvider
}

// NewCachedReviewAdapter creates a new cached review adapter
func NewCachedReviewAdapter(adapter repositories.ReviewRepository, cache providers.CacheProvider) repositories.ReviewRepository {
	return &CachedReviewAdapter{adapter: adapter, cache: cache}
}

// CreateWithRating writes through and invalidates once the write has committed
func (a *CachedReviewAdapter) CreateWithRating(ctx context.Context, review *entities.Review) error {
	if err := a.adapter.CreateWithRating(ctx, review); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, serviceCacheKey(review.ServiceID)); err != nil {
		log.Warn().Err(err).Str("service_id", review.ServiceID).Msg("Failed to invalidate cached service")
	}
	if err := a.cache.DeletePattern(ctx, servicesListPattern); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate cached service lists")
	}
	return nil
}

// GetByBooking is not cached
func (a *CachedReviewAdapter) GetByBooking(ctx context.Context, bookingID string) (*entities.Review, error) {
	return a.adapter.GetByBooking(ctx, bookingID)
}
