package entities

import (
	"fmt"
	"time"

	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// Category identifies one of the fixed service categories
type Category string

const (
	CategoryGeneralCleaning     Category = "general-cleaning"
	CategorySpecializedCleaning Category = "specialized-cleaning"
	CategoryFloorPolishing      Category = "floor-polishing"
	CategoryFumigation          Category = "fumigation"
	CategoryPlumbing            Category = "plumbing"
	CategoryMoving              Category = "moving"
	CategoryInstallationRepair  Category = "installation-repair"
)

// CategoryInfo describes a category for browsing
type CategoryInfo struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// Categories is the catalog's fixed category set
var Categories = []CategoryInfo{
	{ID: CategoryGeneralCleaning, Name: "General Cleaning", Description: "Complete cleaning for offices and commercial spaces"},
	{ID: CategorySpecializedCleaning, Name: "Specialized Cleaning", Description: "Deep cleaning, carpets, upholstery and windows"},
	{ID: CategoryFloorPolishing, Name: "Floor Polishing", Description: "Polishing, waxing and floor restoration"},
	{ID: CategoryFumigation, Name: "Fumigation", Description: "Pest control and commercial sanitation"},
	{ID: CategoryPlumbing, Name: "Plumbing", Description: "Installation, repair and maintenance of plumbing"},
	{ID: CategoryMoving, Name: "Moving", Description: "Office and business relocation"},
	{ID: CategoryInstallationRepair, Name: "Installation & Repair", Description: "Installation and repair of equipment and systems"},
}

// ParseCategory rejects categories outside the fixed set
func ParseCategory(value string) (Category, error) {
	for _, c := range Categories {
		if string(c.ID) == value {
			return c.ID, nil
		}
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown category %q", value))
}

// Service represents a service offered on the marketplace
type Service struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Category     Category  `json:"category" db:"category"`
	PricePerHour int64     `json:"price_per_hour" db:"price_per_hour"`
	Rating       float64   `json:"rating" db:"rating"`
	ReviewCount  int       `json:"review_count" db:"review_count"`
	ProviderID   string    `json:"provider_id" db:"provider_id"`
	Provider     *Provider `json:"provider,omitempty" db:"-"`
	Images       []string  `json:"images" db:"images"`
	Availability []string  `json:"availability" db:"availability"`
	Location     string    `json:"location" db:"location"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// WithRating returns the aggregate rating after one more review
func (s *Service) WithRating(rating int) (float64, int) {
	count := s.ReviewCount + 1
	avg := (s.Rating*float64(s.ReviewCount) + float64(rating)) / float64(count)
	return avg, count
}
