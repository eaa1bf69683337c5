package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// Page sizes for message history
const (
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 200
)

// SendMessageInput is one message sent into a conversation. A caller that
// retries should reuse the same ID.
type SendMessageInput struct {
	ID             string                 `json:"id" validate:"omitempty,max=64"`
	ConversationID string                 `json:"conversation_id" validate:"required"`
	SenderID       string                 `json:"sender_id" validate:"required"`
	Type           string                 `json:"type"`
	Content        string                 `json:"content" validate:"notblank,max=4000"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// OpenConversationInput names the two sides of a thread
type OpenConversationInput struct {
	UserID     string `json:"user_id" validate:"required"`
	ProviderID string `json:"provider_id" validate:"required,nefield=UserID"`
}

// MessagingService handles conversations between users and providers
type MessagingService struct {
	runtime
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	validator     *validation.Validator
}

// NewMessagingService creates a new messaging service
func NewMessagingService(conversations repositories.ConversationRepository, messages repositories.MessageRepository, validator *validation.Validator) *MessagingService {
	return &MessagingService{
		runtime:       newRuntime(),
		conversations: conversations,
		messages:      messages,
		validator:     validator,
	}
}

// SendMessage appends a message for the other participant. Sending an ID that
// is already stored returns the stored message without appending again.
func (s *MessagingService) SendMessage(ctx context.Context, input SendMessageInput) (*entities.Message, error) {
	if err := s.validator.Struct("invalid message", input); err != nil {
		return nil, err
	}
	messageType, err := entities.ParseMessageType(input.Type)
	if err != nil {
		return nil, err
	}

	conversation, err := s.conversations.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	receiver := conversation.Counterpart(input.SenderID)
	if receiver == "" {
		return nil, apperrors.NewForbiddenError("sender is not a participant of this conversation")
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	message := &entities.Message{
		ID:             id,
		ConversationID: conversation.ID,
		SenderID:       input.SenderID,
		ReceiverID:     receiver,
		Type:           messageType,
		Content:        strings.TrimSpace(input.Content),
		Metadata:       input.Metadata,
		CreatedAt:      s.now(),
	}

	stored, created, err := s.messages.Append(ctx, message)
	if err != nil {
		return nil, err
	}
	if !created {
		if stored.ConversationID != conversation.ID {
			return nil, apperrors.NewConflictError("message id " + id + " belongs to another conversation")
		}
		observability.LoggerFromContext(ctx).Debug().Str("message_id", id).Msg("Duplicate message send ignored")
		return stored, nil
	}

	observability.RecordMessage(ctx, s.metrics, string(stored.Type))
	s.publish(ctx,
		entities.NewLifecycleEvent(entities.EventMessageCreated, "message", stored.ID, "", stored, stored.CreatedAt),
		providers.ConversationChannel(stored.ConversationID),
		providers.UserChannel(stored.ReceiverID),
	)
	return stored, nil
}

// OpenConversation returns the thread between a user and a provider, creating it on first contact
func (s *MessagingService) OpenConversation(ctx context.Context, input OpenConversationInput) (*entities.Conversation, error) {
	if err := s.validator.Struct("invalid conversation", input); err != nil {
		return nil, err
	}

	existing, err := s.conversations.FindByParticipants(ctx, input.UserID, input.ProviderID)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, err
	}

	now := s.now()
	conversation := &entities.Conversation{
		ID:           uuid.New().String(),
		Participants: []string{input.UserID, input.ProviderID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("conversation_id", conversation.ID).
		Strs("participants", conversation.Participants).
		Msg("Conversation opened")
	return conversation, nil
}

// ListMessages returns messages after the given sequence, oldest first.
// Clients that missed a live push catch up by passing the last sequence they saw.
func (s *MessagingService) ListMessages(ctx context.Context, conversationID string, after int64, limit int) ([]*entities.Message, error) {
	if after < 0 {
		return nil, apperrors.NewFieldValidationError("after must not be negative", map[string]string{"after": "min"})
	}
	switch {
	case limit <= 0:
		limit = DefaultMessagePageSize
	case limit > MaxMessagePageSize:
		limit = MaxMessagePageSize
	}

	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conversationID, after, limit)
}

// MarkRead marks everything addressed to readerID in the conversation as read
func (s *MessagingService) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conversation.HasParticipant(readerID) {
		return 0, apperrors.NewForbiddenError("reader is not a participant of this conversation")
	}

	now := s.now()
	n, err := s.messages.MarkRead(ctx, conversationID, readerID, now)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.publish(ctx,
			entities.NewLifecycleEvent(entities.EventMessagesRead, "conversation", conversationID, "",
				map[string]interface{}{"reader_id": readerID, "count": n}, now),
			providers.ConversationChannel(conversationID),
			providers.UserChannel(conversation.Counterpart(readerID)),
		)
	}
	return n, nil
}

// GetConversation retrieves a conversation by ID
func (s *MessagingService) GetConversation(ctx context.Context, id string) (*entities.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}

// ListConversations retrieves a participant's conversations, most recent activity first
func (s *MessagingService) ListConversations(ctx context.Context, participantID string) ([]*entities.Conversation, error) {
	return s.conversations.ListByParticipant(ctx, participantID)
}
