package entities

import (
	"time"
)

// Booking represents a scheduled, priced engagement between a user and a provider
type Booking struct {
	ID                  string        `json:"id" db:"id"`
	ServiceID           string        `json:"service_id" db:"service_id"`
	UserID              string        `json:"user_id" db:"user_id"`
	ProviderID          string        `json:"provider_id" db:"provider_id"`
	QuoteID             string        `json:"quote_id,omitempty" db:"quote_id"`
	Status              BookingStatus `json:"status" db:"status"`
	ScheduledDate       string        `json:"scheduled_date" db:"scheduled_date"`
	ScheduledTime       string        `json:"scheduled_time" db:"scheduled_time"`
	ScheduledAt         time.Time     `json:"scheduled_at" db:"scheduled_at"`
	DurationHours       int           `json:"duration_hours" db:"duration_hours"`
	TotalAmount         int64         `json:"total_amount" db:"total_amount"`
	Address             string        `json:"address" db:"address"`
	ContactPhone        string        `json:"contact_phone,omitempty" db:"contact_phone"`
	SpecialInstructions string        `json:"special_instructions,omitempty" db:"special_instructions"`
	Version             int           `json:"version" db:"version"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// Upcoming reports whether the booking starts after now
func (b *Booking) Upcoming(now time.Time) bool {
	return b.ScheduledAt.After(now)
}

// Review is a rating left on a completed booking
type Review struct {
	ID         string    `json:"id" db:"id"`
	BookingID  string    `json:"booking_id" db:"booking_id"`
	ServiceID  string    `json:"service_id" db:"service_id"`
	ProviderID string    `json:"provider_id" db:"provider_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
