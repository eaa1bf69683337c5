package providers

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers of channel
	Publish(ctx context.Context, channel string, event *entities.LifecycleEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.LifecycleEvent, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// Channel prefixes
const (
	EventChannelQuotePrefix        = "quote:"
	EventChannelBookingPrefix      = "booking:"
	EventChannelConversationPrefix = "conversation:"
	EventChannelUserPrefix         = "user:"

	// EventChannelCatalog carries changes to the service catalog
	EventChannelCatalog = "catalog"
)

// QuoteChannel returns the channel for one quote
func QuoteChannel(id string) string {
	return EventChannelQuotePrefix + id
}

// BookingChannel returns the channel for one booking
func BookingChannel(id string) string {
	return EventChannelBookingPrefix + id
}

// ConversationChannel returns the channel for one conversation
func ConversationChannel(id string) string {
	return EventChannelConversationPrefix + id
}

// UserChannel returns the channel carrying everything addressed to a user or provider
func UserChannel(id string) string {
	return EventChannelUserPrefix + id
}
