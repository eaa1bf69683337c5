package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/adapters/database"
	"github.com/zatekoja/servicehub/internal/fixtures"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/pkg/config"
)

func main() {
	var migrate bool
	var reset bool

	flag.BoolVar(&migrate, "migrate", true, "Apply migrations before seeding")
	flag.BoolVar(&reset, "reset", false, "Roll every migration back first (drops all data)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Env)

	loc, _ := cfg.Marketplace.Location()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	if reset {
		log.Warn().Msg("Rolling back all migrations")
		if err := pgClient.MigrateDown(); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
	}
	if migrate || reset {
		if err := pgClient.MigrateUp(); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	result, err := database.SeedFixtures(ctx, pgClient, fixtures.Default(start, loc))
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	tables := make([]string, 0, len(result))
	for table := range result {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		log.Info().Str("table", table).Int64("rows", result[table]).Msg("Seeded")
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Seed complete")
}
