package events

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
)

// ErrBusClosed is returned when publishing or subscribing after Close
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus delivers events to subscribers in the same process
type MemoryEventBus struct {
	hub    *hub
	closed atomic.Bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{hub: newHub()}
}

// Publish publishes an event to all subscribers
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.LifecycleEvent) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	delivered := b.hub.broadcast(channel, event)
	log.Debug().Str("channel", channel).Str("event_id", event.ID).Int("delivered", delivered).Msg("Published event")
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LifecycleEvent, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	eventChan, _ := b.hub.add(channel)

	go func() {
		<-ctx.Done()
		b.hub.remove(channel, eventChan)
	}()

	return eventChan, nil
}

// Unsubscribe drops every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.hub.closeChannel(channel)
	return nil
}

// Close closes the event bus and all subscriptions
func (b *MemoryEventBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, channel := range b.hub.channels() {
		b.hub.closeChannel(channel)
	}
	return nil
}
