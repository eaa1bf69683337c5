package lifecycle

import (
	"fmt"

	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// DefaultDurationHours is preselected when a booking form opens
const DefaultDurationHours = 2

// AllowedDurations are the bookable lengths in hours
var AllowedDurations = []int{1, 2, 3, 4, 6, 8}

// IsAllowedDuration reports whether hours is bookable
func IsAllowedDuration(hours int) bool {
	for _, d := range AllowedDurations {
		if d == hours {
			return true
		}
	}
	return false
}

// TotalAmount prices a booking at creation time
func TotalAmount(pricePerHour int64, durationHours int) (int64, error) {
	if !IsAllowedDuration(durationHours) {
		return 0, apperrors.NewInvalidDurationError(fmt.Sprintf("duration %d hours is not one of %v", durationHours, AllowedDurations))
	}
	if pricePerHour <= 0 {
		return 0, apperrors.NewValidationError("price per hour must be positive")
	}
	return pricePerHour * int64(durationHours), nil
}
