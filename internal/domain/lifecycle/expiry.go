package lifecycle

import (
	"time"
)

// ExpiryState classifies a quote's validity deadline
type ExpiryState string

const (
	ExpiryNone         ExpiryState = "none"
	ExpiryValid        ExpiryState = "valid"
	ExpiryExpiringSoon ExpiryState = "expiring_soon"
	ExpiryExpired      ExpiryState = "expired"
)

// ExpiringSoonWindow is how close to the deadline a quote counts as expiring soon
const ExpiringSoonWindow = 48 * time.Hour

// ClassifyExpiry compares a deadline against now
func ClassifyExpiry(validUntil *time.Time, now time.Time) ExpiryState {
	if validUntil == nil {
		return ExpiryNone
	}
	remaining := validUntil.Sub(now)
	switch {
	case remaining <= 0:
		return ExpiryExpired
	case remaining <= ExpiringSoonWindow:
		return ExpiryExpiringSoon
	default:
		return ExpiryValid
	}
}
