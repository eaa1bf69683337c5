package services

import (
	"context"
	"sort"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
)

// RecentBookingsLimit is how many bookings the dashboard shows as recent
const RecentBookingsLimit = 3

// DashboardOverview summarises a customer's activity
type DashboardOverview struct {
	UserID           string         `json:"user_id"`
	TotalSpent       int64          `json:"total_spent"`
	ActiveBookings   int            `json:"active_bookings"`
	CompletedCount   int            `json:"completed_bookings"`
	OpenQuotes       int            `json:"open_quotes"`
	ExpiringSoon     []*QuoteView   `json:"expiring_soon"`
	RecentBookings   []*BookingView `json:"recent_bookings"`
	UpcomingBookings []*BookingView `json:"upcoming_bookings"`
	ActiveQuotes     []*QuoteView   `json:"active_quotes"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// DashboardService builds the customer dashboard
type DashboardService struct {
	runtime
	quotes   *QuoteService
	bookings *BookingService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(quotes *QuoteService, bookings *BookingService) *DashboardService {
	return &DashboardService{runtime: newRuntime(), quotes: quotes, bookings: bookings}
}

// Overview aggregates the user's bookings and quotes. Every status shown
// is decorated from the status registry.
func (s *DashboardService) Overview(ctx context.Context, userID string, locale lifecycle.Locale) (*DashboardOverview, error) {
	bookings, err := s.bookings.ListUserBookings(ctx, userID, repositories.BookingFilter{})
	if err != nil {
		return nil, err
	}
	quotes, err := s.quotes.ListUserQuotes(ctx, userID, repositories.QuoteFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	overview := &DashboardOverview{UserID: userID, GeneratedAt: now}

	var upcoming []*entities.Booking
	for _, b := range bookings {
		switch {
		case b.Status == entities.BookingStatusCompleted:
			overview.TotalSpent += b.TotalAmount
			overview.CompletedCount++
		case b.Status.Active():
			overview.ActiveBookings++
		}
		if b.Status == entities.BookingStatusConfirmed && b.Upcoming(now) {
			upcoming = append(upcoming, b)
		}
	}

	recent := append([]*entities.Booking(nil), bookings...)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].ID < recent[j].ID
	})
	if len(recent) > RecentBookingsLimit {
		recent = recent[:RecentBookingsLimit]
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt)
	})

	var active, expiring []*entities.Quote
	for _, q := range quotes {
		if !q.Status.Open() {
			continue
		}
		overview.OpenQuotes++
		active = append(active, q)
		if q.Status == entities.QuoteStatusSent && lifecycle.ClassifyExpiry(q.ValidUntil, now) == lifecycle.ExpiryExpiringSoon {
			expiring = append(expiring, q)
		}
	}

	overview.RecentBookings = BookingViews(recent, locale, now)
	overview.UpcomingBookings = BookingViews(upcoming, locale, now)
	overview.ActiveQuotes = QuoteViews(active, locale, now)
	overview.ExpiringSoon = QuoteViews(expiring, locale, now)
	return overview, nil
}
