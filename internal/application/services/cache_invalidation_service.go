package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
)

// HTTPCachePrefix prefixes the keys of cached catalog responses
const HTTPCachePrefix = "http:cache:"

// CacheInvalidationService drops cached catalog responses when the catalog changes
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	services serviceLookup
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  atomic.Bool
}

// serviceLookup resolves the provider owning a service
type serviceLookup interface {
	GetService(ctx context.Context, id string) (*entities.Service, error)
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, catalog serviceLookup) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		services: catalog,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for catalog events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCatalog)
	if err != nil {
		return fmt.Errorf("failed to subscribe to catalog updates: %w", err)
	}

	s.started.Store(true)
	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.LifecycleEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.LifecycleEvent) {
	if event.Type != entities.EventServiceRated {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateService(ctx, event.EntityID); err != nil {
		log.Warn().Err(err).Str("service_id", event.EntityID).Msg("Failed to invalidate cached catalog responses")
	}
}

// InvalidateService drops cached responses that show the service: its page,
// every listing and its provider's page
func (s *CacheInvalidationService) InvalidateService(ctx context.Context, serviceID string) error {
	patterns := []string{
		HTTPCachePrefix + "/api/services*",
	}
	if s.services != nil {
		if svc, err := s.services.GetService(ctx, serviceID); err == nil {
			patterns = append(patterns, HTTPCachePrefix+"/api/providers/"+svc.ProviderID+"*")
		}
	}

	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	log.Debug().Str("service_id", serviceID).Strs("patterns", patterns).Msg("Invalidated cached catalog responses")
	return nil
}
