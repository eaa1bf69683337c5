package entities

import (
	"time"
)

// Quote represents a provider's proposed price and terms for a described job
type Quote struct {
	ID                  string      `json:"id" db:"id"`
	ServiceID           string      `json:"service_id" db:"service_id"`
	UserID              string      `json:"user_id" db:"user_id"`
	ProviderID          string      `json:"provider_id" db:"provider_id"`
	Status              QuoteStatus `json:"status" db:"status"`
	Description         string      `json:"description" db:"description"`
	EstimatedPrice      *int64      `json:"estimated_price,omitempty" db:"estimated_price"`
	EstimatedDuration   string      `json:"estimated_duration,omitempty" db:"estimated_duration"`
	ValidUntil          *time.Time  `json:"valid_until,omitempty" db:"valid_until"`
	Notes               string      `json:"notes,omitempty" db:"notes"`
	PreferredDate       string      `json:"preferred_date,omitempty" db:"preferred_date"`
	Address             string      `json:"address" db:"address"`
	ContactPhone        string      `json:"contact_phone,omitempty" db:"contact_phone"`
	SpecialInstructions string      `json:"special_instructions,omitempty" db:"special_instructions"`
	BookingID           string      `json:"booking_id,omitempty" db:"booking_id"`
	Version             int         `json:"version" db:"version"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}
