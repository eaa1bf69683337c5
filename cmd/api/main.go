package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/adapters/cache"
	"github.com/zatekoja/servicehub/internal/adapters/database"
	"github.com/zatekoja/servicehub/internal/adapters/events"
	"github.com/zatekoja/servicehub/internal/adapters/memory"
	"github.com/zatekoja/servicehub/internal/api/handlers"
	"github.com/zatekoja/servicehub/internal/api/middleware"
	"github.com/zatekoja/servicehub/internal/api/routes"
	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/fixtures"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/redis"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/pkg/config"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// repositorySet is one storage backend's repositories
type repositorySet struct {
	services      repositories.ServiceRepository
	providers     repositories.ProviderRepository
	quotes        repositories.QuoteRepository
	bookings      repositories.BookingRepository
	reviews       repositories.ReviewRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	loc, _ := cfg.Marketplace.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	health := handlers.NewHealthHandler()

	// Storage
	var repos repositorySet
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()

		if cfg.Database.AutoMigrate {
			if err := pgClient.MigrateUp(); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		}
		if cfg.Storage.SeedFixtures {
			result, err := database.SeedFixtures(ctx, pgClient, fixtures.Default(time.Now(), loc))
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to seed fixtures")
			}
			log.Info().Interface("rows", result).Msg("Fixtures seeded")
		}

		repos = repositorySet{
			services:      database.NewServiceAdapter(pgClient),
			providers:     database.NewProviderAdapter(pgClient),
			quotes:        database.NewQuoteAdapter(pgClient),
			bookings:      database.NewBookingAdapter(pgClient),
			reviews:       database.NewReviewAdapter(pgClient),
			conversations: database.NewConversationAdapter(pgClient),
			messages:      database.NewMessageAdapter(pgClient),
		}
		health.AddCheck("postgres", pgClient)
		log.Info().Msg("Using PostgreSQL storage")
	default:
		store := memory.NewStore()
		if cfg.Storage.SeedFixtures {
			store.Load(fixtures.Default(time.Now(), loc))
		}
		repos = repositorySet{
			services:      memory.NewServiceRepository(store),
			providers:     memory.NewProviderRepository(store),
			quotes:        memory.NewQuoteRepository(store),
			bookings:      memory.NewBookingRepository(store),
			reviews:       memory.NewReviewRepository(store),
			conversations: memory.NewConversationRepository(store),
			messages:      memory.NewMessageRepository(store),
		}
		log.Info().Bool("fixtures", cfg.Storage.SeedFixtures).Msg("Using in-memory storage")
	}

	// Cache and event bus: Redis when enabled, in-process otherwise
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-process cache and event bus")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, cfg.Cache.Prefix)
			eventBus = events.NewRedisEventBus(redisClient, cfg.Cache.Prefix)
			health.AddCheck("redis", redisClient)
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}

	repos.services = database.NewCachedServiceAdapter(repos.services, cacheProvider,
		database.CacheTTLs{Service: cfg.Cache.ServiceTTL, List: cfg.Cache.ListTTL}, metrics)
	repos.providers = database.NewCachedProviderAdapter(repos.providers, cacheProvider, cfg.Cache.ServiceTTL, metrics)
	repos.reviews = database.NewCachedReviewAdapter(repos.reviews, cacheProvider)

	// Services
	validator := validation.New()
	catalogService := services.NewCatalogService(repos.services, repos.providers)
	quoteService := services.NewQuoteService(repos.quotes, repos.services, validator)
	bookingService := services.NewBookingService(repos.bookings, repos.reviews, repos.services, validator)
	messagingService := services.NewMessagingService(repos.conversations, repos.messages, validator)
	dashboardService := services.NewDashboardService(quoteService, bookingService)

	quoteService.SetLocation(loc)
	quoteService.SetMetrics(metrics)
	quoteService.SetEventBus(eventBus)
	bookingService.SetLocation(loc)
	bookingService.SetMetrics(metrics)
	bookingService.SetEventBus(eventBus)
	messagingService.SetMetrics(metrics)
	messagingService.SetEventBus(eventBus)
	dashboardService.SetLocation(loc)

	cacheInvalidationService := services.NewCacheInvalidationService(cacheProvider, eventBus, catalogService)
	if err := cacheInvalidationService.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start cache invalidation service")
	}

	var sweeper *services.ExpirySweeper
	if cfg.Marketplace.ExpirySweepEnabled {
		sweeper = services.NewExpirySweeper(quoteService, cfg.Marketplace.ExpirySweepSchedule)
		if err := sweeper.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start expiry sweeper")
		}
	}

	// Handlers
	locale := lifecycle.ParseLocale(cfg.Marketplace.DefaultLocale)
	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider, cfg.Cache.ListTTL, cfg.Cache.ServiceTTL)
	cacheMiddleware.SetMetrics(metrics)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	router := routes.NewRouter(routes.Handlers{
		Catalog:   handlers.NewCatalogHandler(catalogService),
		Status:    handlers.NewStatusHandler(locale),
		Quotes:    handlers.NewQuoteHandler(quoteService, locale),
		Bookings:  handlers.NewBookingHandler(bookingService, locale),
		Messaging: handlers.NewMessagingHandler(messagingService),
		Dashboard: handlers.NewDashboardHandler(dashboardService, locale),
		Stream:    handlers.NewSSEHandler(eventBus, messagingService),
		Health:    health,
	}, routes.Options{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		CacheMiddleware: cacheMiddleware,
		CatalogMaxAge:   cfg.Cache.ListTTL,
		RateLimiter:     limiter,
		Metrics:         metrics,
	})

	// SSE handlers lift WriteTimeout for their own connections
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.Storage.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Closing the bus first ends open streams so Shutdown can drain
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	cacheInvalidationService.Stop()

	log.Info().Msg("Server stopped")
}
