package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of lifecycle event
type EventType string

const (
	EventQuoteSubmitted   EventType = "quote.submitted"
	EventQuoteSent        EventType = "quote.sent"
	EventQuoteAccepted    EventType = "quote.accepted"
	EventQuoteRejected    EventType = "quote.rejected"
	EventQuoteExpired     EventType = "quote.expired"
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingStarted   EventType = "booking.started"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingRated     EventType = "booking.rated"
	EventMessageCreated   EventType = "message.created"
	EventMessagesRead     EventType = "conversation.read"
	EventServiceRated     EventType = "service.rated"
)

// LifecycleEvent is published after a state change has been stored
type LifecycleEvent struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id"`
	Status     string          `json:"status,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewLifecycleEvent builds an event carrying payload serialized as JSON
func NewLifecycleEvent(eventType EventType, kind, entityID, status string, payload interface{}, at time.Time) *LifecycleEvent {
	event := &LifecycleEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		EntityKind: kind,
		EntityID:   entityID,
		Status:     status,
		Timestamp:  at,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			event.Payload = data
		}
	}
	return event
}
