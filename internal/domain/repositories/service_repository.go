package repositories

import (
	"context"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// ServiceSort orders catalog listings
type ServiceSort string

const (
	SortByRating    ServiceSort = "rating"
	SortByPriceLow  ServiceSort = "price-low"
	SortByPriceHigh ServiceSort = "price-high"
	SortByReviews   ServiceSort = "reviews"
)

// ServiceFilter defines filters for listing services
type ServiceFilter struct {
	Category   entities.Category
	Query      string
	ProviderID string
	MinPrice   int64
	MaxPrice   int64
	Sort       ServiceSort
	Limit      int
	Offset     int
}

// ServiceRepository defines the interface for catalog data operations
type ServiceRepository interface {
	// GetByID retrieves a service with its provider summary
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// List returns one page of matching services and the total match count
	List(ctx context.Context, filter ServiceFilter) ([]*entities.Service, int, error)
}

// ProviderRepository defines the interface for provider profiles
type ProviderRepository interface {
	// GetByID retrieves a provider with its full profile
	GetByID(ctx context.Context, id string) (*entities.DetailedProvider, error)
}
