package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// CatalogService defines the catalog reads the handler needs
type CatalogService interface {
	ListCategories() []entities.CategoryInfo
	ListServices(ctx context.Context, filter repositories.ServiceFilter) (*services.ServicePage, error)
	GetService(ctx context.Context, id string) (*entities.Service, error)
	GetProvider(ctx context.Context, id string) (*services.ProviderDetails, error)
	ListProviderServices(ctx context.Context, providerID string) ([]*entities.Service, error)
}

// CatalogHandler handles catalog requests
type CatalogHandler struct {
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.service.ListCategories()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// ListServices handles GET /api/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	filter, err := parseServiceFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	page, err := h.service.ListServices(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// GetService handles GET /api/services/{id}
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.service.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, service)
}

// GetProvider handles GET /api/providers/{id}
func (h *CatalogHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.GetProvider(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, provider)
}

// ListProviderServices handles GET /api/providers/{id}/services
func (h *CatalogHandler) ListProviderServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProviderServices(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": list,
		"count":    len(list),
	})
}

func parseServiceFilter(r *http.Request) (repositories.ServiceFilter, error) {
	query := r.URL.Query()
	filter := repositories.ServiceFilter{
		Category:   entities.Category(query.Get("category")),
		Query:      query.Get("q"),
		ProviderID: query.Get("provider_id"),
		Sort:       repositories.ServiceSort(query.Get("sort")),
	}

	fields := map[string]string{}
	for name, dst := range map[string]*int64{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		if raw := query.Get(name); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				fields[name] = "numeric"
				continue
			}
			*dst = v
		}
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v, err := queryInt(r, name)
		if err != nil {
			fields[name] = "numeric"
			continue
		}
		*dst = v
	}
	if len(fields) > 0 {
		return filter, apperrors.NewFieldValidationError("invalid service filter", fields)
	}
	return filter, nil
}
