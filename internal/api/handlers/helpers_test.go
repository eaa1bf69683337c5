package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/adapters/events"
	"github.com/zatekoja/servicehub/internal/adapters/memory"
	"github.com/zatekoja/servicehub/internal/api/handlers"
	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/fixtures"
	"github.com/zatekoja/servicehub/pkg/validation"
)

// api wires the handlers to services over the in-memory store
type api struct {
	bus       providers.EventBus
	messaging *services.MessagingService
	catalog   *handlers.CatalogHandler
	quotes    *handlers.QuoteHandler
	bookings  *handlers.BookingHandler
	conv      *handlers.MessagingHandler
	dashboard *handlers.DashboardHandler
	status    *handlers.StatusHandler
	sse       *handlers.SSEHandler
}

func newAPI(t *testing.T) *api {
	t.Helper()

	store := memory.NewStore()
	store.Load(fixtures.Default(time.Now(), time.UTC))

	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	v := validation.New()
	serviceRepo := memory.NewServiceRepository(store)
	quoteService := services.NewQuoteService(memory.NewQuoteRepository(store), serviceRepo, v)
	bookingService := services.NewBookingService(memory.NewBookingRepository(store), memory.NewReviewRepository(store), serviceRepo, v)
	messagingService := services.NewMessagingService(memory.NewConversationRepository(store), memory.NewMessageRepository(store), v)
	for _, s := range []interface{ SetEventBus(providers.EventBus) }{quoteService, bookingService, messagingService} {
		s.SetEventBus(bus)
	}

	return &api{
		bus:       bus,
		messaging: messagingService,
		catalog:   handlers.NewCatalogHandler(services.NewCatalogService(serviceRepo, memory.NewProviderRepository(store))),
		quotes:    handlers.NewQuoteHandler(quoteService, lifecycle.LocaleEnglish),
		bookings:  handlers.NewBookingHandler(bookingService, lifecycle.LocaleEnglish),
		conv:      handlers.NewMessagingHandler(messagingService),
		dashboard: handlers.NewDashboardHandler(services.NewDashboardService(quoteService, bookingService), lifecycle.LocaleEnglish),
		status:    handlers.NewStatusHandler(lifecycle.LocaleEnglish),
		sse:       handlers.NewSSEHandler(bus, messagingService),
	}
}

// call runs one handler; pathValues alternate name and value
func call(t *testing.T, h http.HandlerFunc, method, target string, body interface{}, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// streamRecorder is a ResponseWriter that can be read while a stream is writing
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	body   bytes.Buffer
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (s *streamRecorder) Header() http.Header { return s.header }

func (s *streamRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

func (s *streamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.body.Write(p)
}

func (s *streamRecorder) Flush() {}

func (s *streamRecorder) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.String()
}

func (s *streamRecorder) Contains(sub string) bool {
	return strings.Contains(s.String(), sub)
}
