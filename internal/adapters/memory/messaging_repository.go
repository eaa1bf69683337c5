package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// ConversationRepository implements repositories.ConversationRepository on a Store
type ConversationRepository struct {
	store *Store
}

// NewConversationRepository creates a new in-memory conversation repository
func NewConversationRepository(store *Store) repositories.ConversationRepository {
	return &ConversationRepository{store: store}
}

// Create stores a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *entities.Conversation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.conversations[conversation.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("conversation with id %s already exists", conversation.ID))
	}
	r.store.conversations[conversation.ID] = cloneConversation(conversation)
	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.conversations[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("conversation with id %s not found", id))
	}
	return cloneConversation(c), nil
}

// FindByParticipants retrieves the conversation between two participants
func (r *ConversationRepository) FindByParticipants(ctx context.Context, a, b string) (*entities.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// oldest wins when a race created more than one
	var found *entities.Conversation
	for _, c := range r.store.conversations {
		if !c.HasParticipant(a) || !c.HasParticipant(b) {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) ||
			(c.CreatedAt.Equal(found.CreatedAt) && c.ID < found.ID) {
			found = c
		}
	}
	if found != nil {
		return cloneConversation(found), nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("no conversation between %s and %s", a, b))
}

// ListByParticipant retrieves a participant's conversations, most recent activity first
func (r *ConversationRepository) ListByParticipant(ctx context.Context, participantID string) ([]*entities.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entities.Conversation
	for _, c := range r.store.conversations {
		if c.HasParticipant(participantID) {
			out = append(out, cloneConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := activity(out[i]), activity(out[j])
		if ai.Equal(aj) {
			return out[i].ID < out[j].ID
		}
		return ai.After(aj)
	})
	return out, nil
}

func activity(c *entities.Conversation) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

// MessageRepository implements repositories.MessageRepository on a Store
type MessageRepository struct {
	store *Store
}

// NewMessageRepository creates a new in-memory message repository
func NewMessageRepository(store *Store) repositories.MessageRepository {
	return &MessageRepository{store: store}
}

// Append stores message at the end of its conversation
func (r *MessageRepository) Append(ctx context.Context, message *entities.Message) (*entities.Message, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing, ok := r.store.messageByID[message.ID]; ok {
		return cloneMessage(existing), false, nil
	}
	conv, ok := r.store.conversations[message.ConversationID]
	if !ok {
		return nil, false, apperrors.NewNotFoundError(fmt.Sprintf("conversation with id %s not found", message.ConversationID))
	}

	conv.LastSequence++
	stored := cloneMessage(message)
	stored.Sequence = conv.LastSequence
	created := stored.CreatedAt
	conv.LastMessageID = stored.ID
	conv.LastMessageAt = &created
	conv.UpdatedAt = created

	r.store.messageByID[stored.ID] = stored
	r.store.messages[stored.ConversationID] = append(r.store.messages[stored.ConversationID], stored)
	return cloneMessage(stored), true, nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*entities.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.messageByID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("message with id %s not found", id))
	}
	return cloneMessage(m), nil
}

// ListByConversation returns messages with a sequence greater than after, in order
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, after int64, limit int) ([]*entities.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*entities.Message{}
	for _, m := range r.store.messages[conversationID] {
		if m.Sequence <= after {
			continue
		}
		out = append(out, cloneMessage(m))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkRead sets read_at on unread messages addressed to readerID
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.conversations[conversationID]; !ok {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("conversation with id %s not found", conversationID))
	}
	changed := 0
	for _, m := range r.store.messages[conversationID] {
		if m.ReceiverID != readerID || m.ReadAt != nil {
			continue
		}
		readAt := at
		m.ReadAt = &readAt
		changed++
	}
	return changed, nil
}
