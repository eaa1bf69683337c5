package entities

import (
	"fmt"
	"time"

	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// MessageType represents the kind of content a message carries
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeImage   MessageType = "image"
	MessageTypeFile    MessageType = "file"
	MessageTypeQuote   MessageType = "quote"
	MessageTypeBooking MessageType = "booking"
)

// ParseMessageType defaults to text and rejects unknown kinds
func ParseMessageType(value string) (MessageType, error) {
	switch MessageType(value) {
	case "":
		return MessageTypeText, nil
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeQuote, MessageTypeBooking:
		return MessageType(value), nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown message type %q", value))
	}
}

// Message is one entry in a conversation
type Message struct {
	ID             string                 `json:"id" db:"id"`
	ConversationID string                 `json:"conversation_id" db:"conversation_id"`
	SenderID       string                 `json:"sender_id" db:"sender_id"`
	ReceiverID     string                 `json:"receiver_id" db:"receiver_id"`
	Type           MessageType            `json:"type" db:"type"`
	Content        string                 `json:"content" db:"content"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	ReadAt         *time.Time             `json:"read_at,omitempty" db:"read_at"`
	Sequence       int64                  `json:"sequence" db:"sequence"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
}

// Conversation is a thread between a user and a provider
type Conversation struct {
	ID            string     `json:"id" db:"id"`
	Participants  []string   `json:"participants" db:"participants"`
	LastMessageID string     `json:"last_message_id,omitempty" db:"last_message_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	LastSequence  int64      `json:"last_sequence" db:"last_sequence"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// HasParticipant reports whether id takes part in the conversation
func (c *Conversation) HasParticipant(id string) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant, or "" when id is not part of the conversation
func (c *Conversation) Counterpart(id string) string {
	if !c.HasParticipant(id) {
		return ""
	}
	for _, p := range c.Participants {
		if p != id {
			return p
		}
	}
	return ""
}
