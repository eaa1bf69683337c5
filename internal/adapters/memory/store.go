// Package memory implements the repositories on process memory. All
// repositories built from one Store share its lock, so multi-entity writes
// such as accepting a quote are atomic.
package memory

import (
	"sync"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/fixtures"
)

// Store holds every record kept in memory
type Store struct {
	mu            sync.RWMutex
	providers     map[string]*entities.DetailedProvider
	services      map[string]*entities.Service
	quotes        map[string]*entities.Quote
	bookings      map[string]*entities.Booking
	reviews       map[string]*entities.Review // by booking ID
	conversations map[string]*entities.Conversation
	messages      map[string][]*entities.Message // by conversation ID, in sequence order
	messageByID   map[string]*entities.Message
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		providers:     make(map[string]*entities.DetailedProvider),
		services:      make(map[string]*entities.Service),
		quotes:        make(map[string]*entities.Quote),
		bookings:      make(map[string]*entities.Booking),
		reviews:       make(map[string]*entities.Review),
		conversations: make(map[string]*entities.Conversation),
		messages:      make(map[string][]*entities.Message),
		messageByID:   make(map[string]*entities.Message),
	}
}

// Load copies a fixture set into the store, replacing records with the same IDs
func (s *Store) Load(set *fixtures.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range set.Providers {
		c := *p
		s.providers[p.ID] = &c
	}
	for _, svc := range set.Services {
		s.services[svc.ID] = cloneService(svc)
	}
	for _, q := range set.Quotes {
		s.quotes[q.ID] = cloneQuote(q)
	}
	for _, b := range set.Bookings {
		s.bookings[b.ID] = cloneBooking(b)
	}
	for _, r := range set.Reviews {
		c := *r
		s.reviews[r.BookingID] = &c
	}
	for _, conv := range set.Conversations {
		s.conversations[conv.ID] = cloneConversation(conv)
	}
	for _, m := range set.Messages {
		c := cloneMessage(m)
		s.messageByID[m.ID] = c
		s.messages[m.ConversationID] = append(s.messages[m.ConversationID], c)
	}
}

func cloneService(s *entities.Service) *entities.Service {
	c := *s
	c.Provider = nil
	c.Images = append([]string(nil), s.Images...)
	c.Availability = append([]string(nil), s.Availability...)
	return &c
}

func cloneQuote(q *entities.Quote) *entities.Quote {
	c := *q
	if q.EstimatedPrice != nil {
		v := *q.EstimatedPrice
		c.EstimatedPrice = &v
	}
	if q.ValidUntil != nil {
		v := *q.ValidUntil
		c.ValidUntil = &v
	}
	return &c
}

func cloneBooking(b *entities.Booking) *entities.Booking {
	c := *b
	return &c
}

func cloneConversation(conv *entities.Conversation) *entities.Conversation {
	c := *conv
	c.Participants = append([]string(nil), conv.Participants...)
	if conv.LastMessageAt != nil {
		v := *conv.LastMessageAt
		c.LastMessageAt = &v
	}
	return &c
}

func cloneMessage(m *entities.Message) *entities.Message {
	c := *m
	if m.ReadAt != nil {
		v := *m.ReadAt
		c.ReadAt = &v
	}
	if m.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
