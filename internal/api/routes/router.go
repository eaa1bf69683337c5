package routes

import (
	"net/http"
	"time"

	"github.com/zatekoja/servicehub/internal/api/handlers"
	"github.com/zatekoja/servicehub/internal/api/middleware"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
)

// Handlers groups the route handlers
type Handlers struct {
	Catalog   *handlers.CatalogHandler
	Status    *handlers.StatusHandler
	Quotes    *handlers.QuoteHandler
	Bookings  *handlers.BookingHandler
	Messaging *handlers.MessagingHandler
	Dashboard *handlers.DashboardHandler
	Stream    *handlers.SSEHandler
	Health    *handlers.HealthHandler
}

// Options tunes the middleware chain; zero values disable a layer
type Options struct {
	AllowedOrigins  []string
	CacheMiddleware *middleware.CacheMiddleware
	CatalogMaxAge   time.Duration
	RateLimiter     *middleware.RateLimiter
	Metrics         *observability.Metrics
}

// Router holds all route handlers
type Router struct {
	mux      *http.ServeMux
	handlers Handlers
	opts     Options
}

// NewRouter creates a new router
func NewRouter(h Handlers, opts Options) *Router {
	return &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		opts:     opts,
	}
}

// handle registers a route with tracing inside the mux so spans carry the pattern
func (r *Router) handle(pattern string, h http.HandlerFunc, wrap ...func(http.Handler) http.Handler) {
	var handler http.Handler = h
	for i := len(wrap) - 1; i >= 0; i-- {
		handler = wrap[i](handler)
	}
	r.mux.Handle(pattern, middleware.ObservabilityMiddleware(r.opts.Metrics)(handler))
}

// catalog wraps read-only catalog routes with the response cache and HTTP caching headers
func (r *Router) catalog() []func(http.Handler) http.Handler {
	wrap := []func(http.Handler) http.Handler{middleware.ResponseOptimization(r.opts.CatalogMaxAge)}
	if r.opts.CacheMiddleware != nil {
		wrap = append(wrap, r.opts.CacheMiddleware.Middleware)
	}
	return wrap
}

// limited throttles submission and message endpoints
func (r *Router) limited() []func(http.Handler) http.Handler {
	if r.opts.RateLimiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{r.opts.RateLimiter.Middleware}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	h := r.handlers

	// Health
	if h.Health != nil {
		r.mux.HandleFunc("GET /health", h.Health.Health)
		r.mux.HandleFunc("GET /ready", h.Health.Ready)
	}

	// Catalog
	catalog := r.catalog()
	r.handle("GET /api/categories", h.Catalog.ListCategories, catalog...)
	r.handle("GET /api/services", h.Catalog.ListServices, catalog...)
	r.handle("GET /api/services/{id}", h.Catalog.GetService, catalog...)
	r.handle("GET /api/providers/{id}", h.Catalog.GetProvider, catalog...)
	r.handle("GET /api/providers/{id}/services", h.Catalog.ListProviderServices, catalog...)

	// Status registry
	r.handle("GET /api/statuses/{kind}/{status}", h.Status.GetStatus)

	limited := r.limited()

	// Quotes
	r.handle("POST /api/quotes", h.Quotes.SubmitQuote, limited...)
	r.handle("GET /api/quotes/{id}", h.Quotes.GetQuote)
	r.handle("GET /api/users/{id}/quotes", h.Quotes.ListUserQuotes)
	r.handle("POST /api/quotes/{id}/send", h.Quotes.SendQuote)
	r.handle("POST /api/quotes/{id}/accept", h.Quotes.AcceptQuote)
	r.handle("POST /api/quotes/{id}/reject", h.Quotes.RejectQuote)

	// Bookings
	r.handle("POST /api/bookings", h.Bookings.SubmitBooking, limited...)
	r.handle("GET /api/bookings/{id}", h.Bookings.GetBooking)
	r.handle("GET /api/users/{id}/bookings", h.Bookings.ListUserBookings)
	r.handle("GET /api/bookings/{id}/actions", h.Bookings.GetActions)
	r.handle("POST /api/bookings/{id}/confirm", h.Bookings.Confirm)
	r.handle("POST /api/bookings/{id}/start", h.Bookings.Start)
	r.handle("POST /api/bookings/{id}/complete", h.Bookings.Complete)
	r.handle("POST /api/bookings/{id}/cancel", h.Bookings.Cancel)
	r.handle("POST /api/bookings/{id}/rate", h.Bookings.Rate, limited...)
	r.handle("GET /api/bookings/{id}/review", h.Bookings.GetReview)

	// Conversations
	r.handle("POST /api/conversations", h.Messaging.OpenConversation)
	r.handle("GET /api/users/{id}/conversations", h.Messaging.ListConversations)
	r.handle("GET /api/conversations/{id}/messages", h.Messaging.ListMessages)
	r.handle("POST /api/conversations/{id}/messages", h.Messaging.SendMessage, limited...)
	r.handle("POST /api/conversations/{id}/read", h.Messaging.MarkRead)

	// Live streams
	if h.Stream != nil {
		r.handle("GET /api/conversations/{id}/stream", h.Stream.StreamConversation)
		r.handle("GET /api/users/{id}/stream", h.Stream.StreamUser)
	}

	// Dashboard
	r.handle("GET /api/users/{id}/dashboard", h.Dashboard.GetDashboard)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS wraps every route so cached responses and 429s also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.opts.AllowedOrigins)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}
