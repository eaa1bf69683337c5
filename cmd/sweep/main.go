// Command sweep expires overdue quotes once, for running from an external
// scheduler instead of the API's in-process sweeper.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/adapters/database"
	"github.com/zatekoja/servicehub/internal/adapters/events"
	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/redis"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/pkg/config"
	"github.com/zatekoja/servicehub/pkg/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-sweep", cfg.Env)

	if cfg.Storage.Driver != config.StoragePostgres {
		log.Fatal().Str("driver", cfg.Storage.Driver).Msg("One-shot sweeps need shared storage; set STORAGE_DRIVER=postgres")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	quoteService := services.NewQuoteService(database.NewQuoteAdapter(pgClient), database.NewServiceAdapter(pgClient), validation.New())
	if loc, err := cfg.Marketplace.Location(); err == nil {
		quoteService.SetLocation(loc)
	}

	// Publish expirations so running API instances push them to open streams
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, expirations will not be broadcast")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBus(redisClient, cfg.Cache.Prefix)
			defer eventBus.Close()
			quoteService.SetEventBus(eventBus)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	n, err := services.NewExpirySweeper(quoteService, cfg.Marketplace.ExpirySweepSchedule).RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Int("expired", n).Msg("Sweep failed")
		os.Exit(1)
	}
	log.Info().Int("expired", n).Dur("duration", time.Since(start)).Msg("Sweep complete")
}
