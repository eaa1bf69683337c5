package services

import (
	"context"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// runtime holds the collaborators shared by the lifecycle services
type runtime struct {
	eventBus providers.EventBus
	metrics  *observability.Metrics
	now      func() time.Time
	loc      *time.Location
}

func newRuntime() runtime {
	return runtime{now: time.Now, loc: time.UTC}
}

// SetEventBus sets the bus lifecycle events are published on
func (r *runtime) SetEventBus(bus providers.EventBus) {
	r.eventBus = bus
}

// SetMetrics sets the metric instruments
func (r *runtime) SetMetrics(metrics *observability.Metrics) {
	r.metrics = metrics
}

// SetClock replaces the wall clock
func (r *runtime) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// SetLocation sets the time zone scheduled slots are resolved in
func (r *runtime) SetLocation(loc *time.Location) {
	if loc != nil {
		r.loc = loc
	}
}

// publish is best effort: the state change is already stored, so a bus
// failure is logged and never returned to the caller.
func (r *runtime) publish(ctx context.Context, event *entities.LifecycleEvent, channels ...string) {
	if r.eventBus == nil {
		return
	}
	for _, channel := range channels {
		if err := r.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("channel", channel).
				Str("event_type", string(event.Type)).
				Str("entity_id", event.EntityID).
				Msg("Failed to publish lifecycle event")
		}
	}
}

// flag logs and counts a stored record whose status is outside the vocabulary
func flag(ctx context.Context, entity, id, status string) error {
	observability.LoggerFromContext(ctx).Error().
		Bool("review_required", true).
		Str("entity", entity).
		Str("id", id).
		Str("status", status).
		Msg("Stored record has an unknown status")
	observability.RecordFlaggedRecord(ctx, entity, status)
	return apperrors.NewUnknownStatusError(entity + " " + id + " has unknown status " + status)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.TypeOf(err))
}
