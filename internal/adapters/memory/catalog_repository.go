package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// ServiceRepository implements repositories.ServiceRepository on a Store
type ServiceRepository struct {
	store *Store
}

// NewServiceRepository creates a new in-memory service repository
func NewServiceRepository(store *Store) repositories.ServiceRepository {
	return &ServiceRepository{store: store}
}

// GetByID retrieves a service with its provider summary
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	svc, ok := r.store.services[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	return r.withProvider(svc), nil
}

// List returns one page of matching services and the total match count
func (r *ServiceRepository) List(ctx context.Context, filter repositories.ServiceFilter) ([]*entities.Service, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matches := make([]*entities.Service, 0, len(r.store.services))
	for _, svc := range r.store.services {
		if filter.Category != "" && svc.Category != filter.Category {
			continue
		}
		if filter.ProviderID != "" && svc.ProviderID != filter.ProviderID {
			continue
		}
		if filter.MinPrice > 0 && svc.PricePerHour < filter.MinPrice {
			continue
		}
		if filter.MaxPrice > 0 && svc.PricePerHour > filter.MaxPrice {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(svc.Title), query) &&
			!strings.Contains(strings.ToLower(svc.Description), query) {
			continue
		}
		matches = append(matches, svc)
	}

	sortServices(matches, filter.Sort)

	total := len(matches)
	paged := page(matches, filter.Limit, filter.Offset)
	out := make([]*entities.Service, 0, len(paged))
	for _, svc := range paged {
		out = append(out, r.withProvider(svc))
	}
	return out, total, nil
}

func (r *ServiceRepository) withProvider(svc *entities.Service) *entities.Service {
	out := cloneService(svc)
	if p, ok := r.store.providers[svc.ProviderID]; ok {
		summary := p.Provider
		out.Provider = &summary
	}
	return out
}

func sortServices(items []*entities.Service, by repositories.ServiceSort) {
	less := func(i, j int) bool { return items[i].ID < items[j].ID }
	switch by {
	case repositories.SortByPriceLow:
		less = func(i, j int) bool {
			if items[i].PricePerHour == items[j].PricePerHour {
				return items[i].ID < items[j].ID
			}
			return items[i].PricePerHour < items[j].PricePerHour
		}
	case repositories.SortByPriceHigh:
		less = func(i, j int) bool {
			if items[i].PricePerHour == items[j].PricePerHour {
				return items[i].ID < items[j].ID
			}
			return items[i].PricePerHour > items[j].PricePerHour
		}
	case repositories.SortByReviews:
		less = func(i, j int) bool {
			if items[i].ReviewCount == items[j].ReviewCount {
				return items[i].ID < items[j].ID
			}
			return items[i].ReviewCount > items[j].ReviewCount
		}
	case repositories.SortByRating, "":
		less = func(i, j int) bool {
			if items[i].Rating == items[j].Rating {
				return items[i].ID < items[j].ID
			}
			return items[i].Rating > items[j].Rating
		}
	}
	sort.SliceStable(items, less)
}

// ProviderRepository implements repositories.ProviderRepository on a Store
type ProviderRepository struct {
	store *Store
}

// NewProviderRepository creates a new in-memory provider repository
func NewProviderRepository(store *Store) repositories.ProviderRepository {
	return &ProviderRepository{store: store}
}

// GetByID retrieves a provider with its full profile
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*entities.DetailedProvider, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.providers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	c := *p
	return &c, nil
}
