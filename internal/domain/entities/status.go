package entities

import (
	"fmt"

	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// QuoteStatus represents the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// QuoteStatuses lists the closed quote vocabulary in lifecycle order
var QuoteStatuses = []QuoteStatus{
	QuoteStatusPending,
	QuoteStatusSent,
	QuoteStatusAccepted,
	QuoteStatusRejected,
	QuoteStatusExpired,
}

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// BookingStatuses lists the closed booking vocabulary in lifecycle order
var BookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// ParseQuoteStatus rejects any value outside the quote vocabulary
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, s := range QuoteStatuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", apperrors.NewUnknownStatusError(fmt.Sprintf("unknown quote status %q", value))
}

// ParseBookingStatus rejects any value outside the booking vocabulary
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, s := range BookingStatuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", apperrors.NewUnknownStatusError(fmt.Sprintf("unknown booking status %q", value))
}

// Valid reports whether s belongs to the quote vocabulary
func (s QuoteStatus) Valid() bool {
	_, err := ParseQuoteStatus(string(s))
	return err == nil
}

// Valid reports whether s belongs to the booking vocabulary
func (s BookingStatus) Valid() bool {
	_, err := ParseBookingStatus(string(s))
	return err == nil
}

// Active reports whether the booking still has work ahead of it
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusInProgress
}

// Open reports whether the quote is still waiting on someone
func (s QuoteStatus) Open() bool {
	return s == QuoteStatusPending || s == QuoteStatusSent
}
