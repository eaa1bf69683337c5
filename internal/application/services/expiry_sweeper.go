package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSweepTimeout bounds a single expiry sweep
const DefaultSweepTimeout = 30 * time.Second

// ExpirySweeper periodically expires sent quotes whose deadline has passed
type ExpirySweeper struct {
	quotes   *QuoteService
	schedule string
	cron     *cron.Cron
	timeout  time.Duration
}

// NewExpirySweeper creates a sweeper running on a standard cron schedule or descriptor such as "@every 1m"
func NewExpirySweeper(quotes *QuoteService, schedule string) *ExpirySweeper {
	logger := cronLogger{logger: log.With().Str("component", "expiry_sweeper").Logger()}
	return &ExpirySweeper{
		quotes:   quotes,
		schedule: schedule,
		timeout:  DefaultSweepTimeout,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start schedules the sweep and starts the scheduler
func (s *ExpirySweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("invalid expiry sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("Expiry sweeper started")
	return nil
}

// Stop stops scheduling and waits for a running sweep, up to ctx
func (s *ExpirySweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("Expiry sweeper stopped before the running sweep finished")
		return
	}
	log.Info().Msg("Expiry sweeper stopped")
}

// RunOnce expires every due quote now and returns how many moved
func (s *ExpirySweeper) RunOnce(ctx context.Context) (int, error) {
	return s.quotes.ExpireDue(ctx, s.quotes.now())
}

func (s *ExpirySweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Int("expired", n).Msg("Expiry sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int("expired", n).Dur("duration", time.Since(start)).Msg("Expired overdue quotes")
	}
}

// cronLogger routes scheduler logs to zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
