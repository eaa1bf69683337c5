package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// MessagingService defines the conversation operations the handler needs
type MessagingService interface {
	SendMessage(ctx context.Context, input services.SendMessageInput) (*entities.Message, error)
	OpenConversation(ctx context.Context, input services.OpenConversationInput) (*entities.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, after int64, limit int) ([]*entities.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
	GetConversation(ctx context.Context, id string) (*entities.Conversation, error)
	ListConversations(ctx context.Context, participantID string) ([]*entities.Conversation, error)
}

// MessagingHandler handles conversation requests
type MessagingHandler struct {
	service MessagingService
}

// NewMessagingHandler creates a new messaging handler
func NewMessagingHandler(service MessagingService) *MessagingHandler {
	return &MessagingHandler{service: service}
}

type sendMessageRequest struct {
	ID       string                 `json:"id"`
	SenderID string                 `json:"sender_id"`
	Type     string                 `json:"type"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

type markReadRequest struct {
	ReaderID string `json:"reader_id"`
}

// OpenConversation handles POST /api/conversations
func (h *MessagingHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	var input services.OpenConversationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	conversation, err := h.service.OpenConversation(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conversation)
}

// ListConversations handles GET /api/users/{id}/conversations
func (h *MessagingHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.service.ListConversations(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// ListMessages handles GET /api/conversations/{id}/messages?after=&limit=
func (h *MessagingHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	after, err := parseSequence(r.URL.Query().Get("after"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	messages, err := h.service.ListMessages(r.Context(), r.PathValue("id"), after, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var last int64
	if n := len(messages); n > 0 {
		last = messages[n-1].Sequence
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"messages":      messages,
		"count":         len(messages),
		"last_sequence": last,
	})
}

// SendMessage handles POST /api/conversations/{id}/messages
func (h *MessagingHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.service.SendMessage(r.Context(), services.SendMessageInput{
		ID:             req.ID,
		ConversationID: r.PathValue("id"),
		SenderID:       req.SenderID,
		Type:           req.Type,
		Content:        req.Content,
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, message)
}

// MarkRead handles POST /api/conversations/{id}/read
func (h *MessagingHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReaderID == "" {
		respondWithAppError(w, r, apperrors.NewFieldValidationError("reader_id is required", map[string]string{"reader_id": "required"}))
		return
	}

	n, err := h.service.MarkRead(r.Context(), r.PathValue("id"), req.ReaderID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": r.PathValue("id"),
		"marked_read":     n,
	})
}

func parseSequence(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewFieldValidationError("after must be a message sequence", map[string]string{"after": "numeric"})
	}
	return v, nil
}
