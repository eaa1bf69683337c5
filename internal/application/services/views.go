package services

import (
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
)

// QuoteView is a quote decorated for display
type QuoteView struct {
	*entities.Quote
	Display lifecycle.Display     `json:"display"`
	Expiry  lifecycle.ExpiryState `json:"expiry"`
	Actions []lifecycle.Action    `json:"actions"`
}

// BookingView is a booking decorated for display
type BookingView struct {
	*entities.Booking
	Display lifecycle.BookingDisplay `json:"display"`
	Actions []lifecycle.Action       `json:"actions"`
}

// NewQuoteView reads the quote's presentation from the status registry
func NewQuoteView(q *entities.Quote, locale lifecycle.Locale, now time.Time) (*QuoteView, error) {
	display, err := lifecycle.QuoteStatusDisplay(string(q.Status), locale)
	if err != nil {
		return nil, err
	}
	expiry := lifecycle.ExpiryNone
	if q.Status == entities.QuoteStatusSent {
		expiry = lifecycle.ClassifyExpiry(q.ValidUntil, now)
	}
	return &QuoteView{
		Quote:   q,
		Display: display,
		Expiry:  expiry,
		Actions: lifecycle.AllowedQuoteActions(q.Status, lifecycle.Context{Now: now, ValidUntil: q.ValidUntil}),
	}, nil
}

// NewBookingView reads the booking's presentation from the status registry
func NewBookingView(b *entities.Booking, locale lifecycle.Locale, now time.Time) (*BookingView, error) {
	display, err := lifecycle.BookingStatusDisplay(string(b.Status), locale)
	if err != nil {
		return nil, err
	}
	return &BookingView{
		Booking: b,
		Display: display,
		Actions: lifecycle.AllowedBookingActions(b.Status, lifecycle.Context{Now: now, ScheduledAt: b.ScheduledAt}),
	}, nil
}

// QuoteViews decorates a list; entries the registry does not know are skipped
func QuoteViews(quotes []*entities.Quote, locale lifecycle.Locale, now time.Time) []*QuoteView {
	views := make([]*QuoteView, 0, len(quotes))
	for _, q := range quotes {
		if v, err := NewQuoteView(q, locale, now); err == nil {
			views = append(views, v)
		}
	}
	return views
}

// BookingViews decorates a list; entries the registry does not know are skipped
func BookingViews(bookings []*entities.Booking, locale lifecycle.Locale, now time.Time) []*BookingView {
	views := make([]*BookingView, 0, len(bookings))
	for _, b := range bookings {
		if v, err := NewBookingView(b, locale, now); err == nil {
			views = append(views, v)
		}
	}
	return views
}
