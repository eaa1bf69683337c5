package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// Catalog page sizes
const (
	DefaultServicePageSize = 20
	MaxServicePageSize     = 100
)

// ServicePage is one page of a catalog listing
type ServicePage struct {
	Services   []*entities.Service `json:"services"`
	TotalCount int                 `json:"total_count"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

// ProviderDetails is a provider with its services and ordered weekly schedule
type ProviderDetails struct {
	*entities.DetailedProvider
	Schedule []entities.DaySchedule `json:"schedule"`
	Services []*entities.Service    `json:"services"`
}

// CatalogService serves the read-only service catalog
type CatalogService struct {
	services  repositories.ServiceRepository
	providers repositories.ProviderRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(services repositories.ServiceRepository, providers repositories.ProviderRepository) *CatalogService {
	return &CatalogService{services: services, providers: providers}
}

// ListCategories returns the fixed category set
func (s *CatalogService) ListCategories() []entities.CategoryInfo {
	return append([]entities.CategoryInfo(nil), entities.Categories...)
}

// ListServices filters, sorts and pages the catalog
func (s *CatalogService) ListServices(ctx context.Context, filter repositories.ServiceFilter) (*ServicePage, error) {
	if err := normalizeServiceFilter(&filter); err != nil {
		return nil, err
	}

	services, total, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ServicePage{Services: services, TotalCount: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetService retrieves a service with its provider summary
func (s *CatalogService) GetService(ctx context.Context, id string) (*entities.Service, error) {
	return s.services.GetByID(ctx, id)
}

// GetProvider retrieves a provider's full profile
func (s *CatalogService) GetProvider(ctx context.Context, id string) (*ProviderDetails, error) {
	provider, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	services, err := s.listByProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProviderDetails{
		DetailedProvider: provider,
		Schedule:         provider.WeeklySchedule(),
		Services:         services,
	}, nil
}

// ListProviderServices returns every service a provider offers, best rated first
func (s *CatalogService) ListProviderServices(ctx context.Context, providerID string) ([]*entities.Service, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	return s.listByProvider(ctx, providerID)
}

func (s *CatalogService) listByProvider(ctx context.Context, providerID string) ([]*entities.Service, error) {
	services, _, err := s.services.List(ctx, repositories.ServiceFilter{ProviderID: providerID, Sort: repositories.SortByRating})
	if err != nil {
		return nil, err
	}
	return services, nil
}

func normalizeServiceFilter(f *repositories.ServiceFilter) error {
	fields := map[string]string{}

	if f.Category != "" {
		if _, err := entities.ParseCategory(string(f.Category)); err != nil {
			fields["category"] = "oneof"
		}
	}
	switch f.Sort {
	case "":
		f.Sort = repositories.SortByRating
	case repositories.SortByRating, repositories.SortByPriceLow, repositories.SortByPriceHigh, repositories.SortByReviews:
	default:
		fields["sort"] = "oneof"
	}
	if f.MinPrice < 0 {
		fields["min_price"] = "min"
	}
	if f.MaxPrice < 0 {
		fields["max_price"] = "min"
	}
	if f.MinPrice > 0 && f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		fields["max_price"] = "gtefield"
	}
	if f.Offset < 0 {
		fields["offset"] = "min"
	}
	if len(fields) > 0 {
		return apperrors.NewFieldValidationError(fmt.Sprintf("invalid service filter: %d field(s)", len(fields)), fields)
	}

	switch {
	case f.Limit <= 0:
		f.Limit = DefaultServicePageSize
	case f.Limit > MaxServicePageSize:
		f.Limit = MaxServicePageSize
	}
	return nil
}
