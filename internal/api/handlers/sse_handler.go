package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
)

// DefaultHeartbeatInterval is how often idle streams send a heartbeat
const DefaultHeartbeatInterval = 30 * time.Second

// ConversationReader loads the history a reconnecting stream replays
type ConversationReader interface {
	GetConversation(ctx context.Context, id string) (*entities.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, after int64, limit int) ([]*entities.Message, error)
}

// SSEHandler streams lifecycle events as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	history   ConversationReader
	heartbeat time.Duration
	clients   map[string]int
	mu        sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, history ConversationReader) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		history:   history,
		heartbeat: DefaultHeartbeatInterval,
		clients:   make(map[string]int),
	}
}

// SetHeartbeat changes the heartbeat interval
func (h *SSEHandler) SetHeartbeat(d time.Duration) {
	if d > 0 {
		h.heartbeat = d
	}
}

// StreamConversation handles GET /api/conversations/{id}/stream.
// Messages carry their sequence as the event id; a client reconnecting with
// Last-Event-ID (or ?after=) first receives what it missed.
func (h *SSEHandler) StreamConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	ctx := r.Context()

	if _, err := h.history.GetConversation(ctx, conversationID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	lastID := r.Header.Get("Last-Event-ID")
	if lastID == "" {
		lastID = r.URL.Query().Get("after")
	}
	last, err := parseSequence(lastID)
	if err != nil || last < 0 {
		respondWithError(w, http.StatusBadRequest, "invalid last event id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before replaying so nothing falls between the two.
	channel := providers.ConversationChannel(conversationID)
	eventChan, err := h.eventBus.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to stream channel")
		respondWithError(w, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	h.registerClient(channel)
	defer h.unregisterClient(channel)

	setStreamHeaders(w)
	h.sendEvent(w, "", "connected", map[string]interface{}{
		"conversation_id": conversationID,
		"after":           last,
		"timestamp":       time.Now(),
	})

	for {
		page, err := h.history.ListMessages(ctx, conversationID, last, services.MaxMessagePageSize)
		if err != nil {
			log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to replay messages")
			return
		}
		for _, m := range page {
			h.sendEvent(w, strconv.FormatInt(m.Sequence, 10), string(entities.EventMessageCreated), m)
			last = m.Sequence
		}
		if len(page) < services.MaxMessagePageSize {
			break
		}
	}
	flusher.Flush()

	h.pump(ctx, w, flusher, eventChan, func(event *entities.LifecycleEvent) {
		if event.Type != entities.EventMessageCreated {
			h.sendEvent(w, "", string(event.Type), event)
			return
		}
		var message entities.Message
		if err := json.Unmarshal(event.Payload, &message); err != nil {
			log.Warn().Err(err).Str("event_id", event.ID).Msg("Dropped malformed message event")
			return
		}
		if message.Sequence <= last {
			return
		}
		last = message.Sequence
		h.sendEvent(w, strconv.FormatInt(message.Sequence, 10), string(event.Type), &message)
	})
}

// StreamUser handles GET /api/users/{id}/stream: every event addressed to a user or provider
func (h *SSEHandler) StreamUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	channel := providers.UserChannel(userID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to stream channel")
		respondWithError(w, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	h.registerClient(channel)
	defer h.unregisterClient(channel)

	setStreamHeaders(w)
	h.sendEvent(w, "", "connected", map[string]interface{}{
		"user_id":   userID,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	h.pump(r.Context(), w, flusher, eventChan, func(event *entities.LifecycleEvent) {
		h.sendEvent(w, "", string(event.Type), event)
	})
}

// pump writes events until the client leaves or the subscription closes
func (h *SSEHandler) pump(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, eventChan <-chan *entities.LifecycleEvent, write func(*entities.LifecycleEvent)) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "", "heartbeat", map[string]interface{}{"timestamp": time.Now()})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			write(event)
			flusher.Flush()
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	// streams outlive the server's WriteTimeout; not every writer supports this
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}

func (h *SSEHandler) registerClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]++
	log.Debug().Str("channel", channel).Int("clients", h.clients[channel]).Msg("Stream client connected")
}

func (h *SSEHandler) unregisterClient(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[channel]--
	if h.clients[channel] <= 0 {
		delete(h.clients, channel)
	}
	log.Debug().Str("channel", channel).Msg("Stream client disconnected")
}

// sendEvent writes one SSE frame; id is omitted when empty
func (h *SSEHandler) sendEvent(w http.ResponseWriter, id, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("Failed to marshal event data")
		return
	}

	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected stream clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
