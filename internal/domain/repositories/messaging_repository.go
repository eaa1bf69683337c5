package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// ConversationRepository defines the interface for conversation threads
type ConversationRepository interface {
	// Create stores a new conversation
	Create(ctx context.Context, conversation *entities.Conversation) error

	// GetByID retrieves a conversation by ID
	GetByID(ctx context.Context, id string) (*entities.Conversation, error)

	// FindByParticipants retrieves the conversation between two participants
	FindByParticipants(ctx context.Context, a, b string) (*entities.Conversation, error)

	// ListByParticipant retrieves a participant's conversations, most recent activity first
	ListByParticipant(ctx context.Context, participantID string) ([]*entities.Conversation, error)
}

// MessageRepository defines the interface for conversation messages
type MessageRepository interface {
	// Append stores message at the end of its conversation, assigning its
	// sequence and moving the conversation's last-message pointer. If a message
	// with the same ID already exists it is returned with created=false.
	Append(ctx context.Context, message *entities.Message) (stored *entities.Message, created bool, err error)

	// GetByID retrieves a message by ID
	GetByID(ctx context.Context, id string) (*entities.Message, error)

	// ListByConversation returns messages with a sequence greater than after, in order
	ListByConversation(ctx context.Context, conversationID string, after int64, limit int) ([]*entities.Message, error)

	// MarkRead sets read_at on unread messages addressed to readerID and returns how many changed
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int, error)
}
