package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

const subscriberBuffer = 100

// hub fans events out to the local subscribers of each channel. A slow
// subscriber whose buffer is full misses the event instead of blocking the
// publisher; stream clients recover by replaying from their last sequence.
type hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.LifecycleEvent]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[chan *entities.LifecycleEvent]struct{})}
}

func (h *hub) add(channel string) (chan *entities.LifecycleEvent, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[chan *entities.LifecycleEvent]struct{})
	}
	ch := make(chan *entities.LifecycleEvent, subscriberBuffer)
	h.subscribers[channel][ch] = struct{}{}
	return ch, len(h.subscribers[channel])
}

// remove closes one subscriber and reports how many are left on the channel
func (h *hub) remove(channel string, ch chan *entities.LifecycleEvent) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, exists := h.subscribers[channel]
	if !exists {
		return 0, false
	}
	if _, ok := subscribers[ch]; !ok {
		return len(subscribers), false
	}

	delete(subscribers, ch)
	close(ch)
	if len(subscribers) == 0 {
		delete(h.subscribers, channel)
	}
	return len(subscribers), true
}

func (h *hub) broadcast(channel string, event *entities.LifecycleEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for subscriber := range h.subscribers[channel] {
		select {
		case subscriber <- event:
			delivered++
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, skipping event")
		}
	}
	return delivered
}

func (h *hub) closeChannel(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subscriber := range h.subscribers[channel] {
		close(subscriber)
	}
	delete(h.subscribers, channel)
}

func (h *hub) channels() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.subscribers))
	for channel := range h.subscribers {
		out = append(out, channel)
	}
	return out
}
