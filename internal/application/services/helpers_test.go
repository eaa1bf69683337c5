package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/servicehub/internal/adapters/memory"
	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/fixtures"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// Mocks

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.LifecycleEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LifecycleEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.LifecycleEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockEventBus) Close() error {
	return nil
}

func eventOfType(t entities.EventType) interface{} {
	return mock.MatchedBy(func(e *entities.LifecycleEvent) bool { return e.Type == t })
}

// Harness

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	store     *memory.Store
	bus       *MockEventBus
	quoteRepo repositories.QuoteRepository
	bookRepo  repositories.BookingRepository
	quotes    *services.QuoteService
	bookings  *services.BookingService
	messaging *services.MessagingService
	catalog   *services.CatalogService
	dashboard *services.DashboardService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	store.Load(fixtures.Default(testNow, time.UTC))

	bus := new(MockEventBus)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	v := validation.New()
	serviceRepo := memory.NewServiceRepository(store)
	h := &harness{
		store:     store,
		bus:       bus,
		quoteRepo: memory.NewQuoteRepository(store),
		bookRepo:  memory.NewBookingRepository(store),
		catalog:   services.NewCatalogService(serviceRepo, memory.NewProviderRepository(store)),
	}
	h.quotes = services.NewQuoteService(h.quoteRepo, serviceRepo, v)
	h.bookings = services.NewBookingService(h.bookRepo, memory.NewReviewRepository(store), serviceRepo, v)
	h.messaging = services.NewMessagingService(memory.NewConversationRepository(store), memory.NewMessageRepository(store), v)
	h.dashboard = services.NewDashboardService(h.quotes, h.bookings)

	clock := func() time.Time { return testNow }
	h.quotes.SetEventBus(bus)
	h.quotes.SetClock(clock)
	h.bookings.SetEventBus(bus)
	h.bookings.SetClock(clock)
	h.messaging.SetEventBus(bus)
	h.messaging.SetClock(clock)
	h.dashboard.SetClock(clock)
	return h
}
