package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
)

// CacheMiddleware caches successful catalog GET responses. Keys are the
// request path and query under services.HTTPCachePrefix so catalog changes
// can drop them by pattern.
type CacheMiddleware struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
	routes  map[string]time.Duration
}

// NewCacheMiddleware caches the catalog listings for listTTL and single
// services and providers for itemTTL
func NewCacheMiddleware(cache providers.CacheProvider, listTTL, itemTTL time.Duration) *CacheMiddleware {
	return NewCacheMiddlewareWithRoutes(cache, map[string]time.Duration{
		"/api/categories": listTTL,
		"/api/services":   listTTL,
		"/api/services/":  itemTTL,
		"/api/providers/": itemTTL,
	})
}

// NewCacheMiddlewareWithRoutes caches paths by longest matching prefix
func NewCacheMiddlewareWithRoutes(cache providers.CacheProvider, routes map[string]time.Duration) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, routes: routes}
}

// SetMetrics records hits and misses
func (m *CacheMiddleware) SetMetrics(metrics *observability.Metrics) {
	m.metrics = metrics
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		ttl, ok := m.ttlFor(r.URL.Path)
		if !ok || ttl <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx)
		key := CacheKey(r)

		if cached, err := m.cache.Get(ctx, key); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, r.URL.Path)
			logger.Debug().Str("key", key).Msg("Cache hit")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, r.URL.Path)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(ctx, key, recorder.body.Bytes(), ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
			return
		}
		logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached response")
	})
}

// ttlFor matches the longest configured prefix
func (m *CacheMiddleware) ttlFor(path string) (time.Duration, bool) {
	if ttl, ok := m.routes[path]; ok {
		return ttl, true
	}

	best, found := "", false
	var ttl time.Duration
	for prefix, d := range m.routes {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best, ttl, found = prefix, d, true
		}
	}
	return ttl, found
}

// CacheKey is the cache key of a request
func CacheKey(r *http.Request) string {
	key := services.HTTPCachePrefix + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	return key
}

// responseRecorder copies the response into a buffer while writing it through
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
