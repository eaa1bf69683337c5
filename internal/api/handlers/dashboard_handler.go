package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
)

// DashboardService defines the dashboard read the handler needs
type DashboardService interface {
	Overview(ctx context.Context, userID string, locale lifecycle.Locale) (*services.DashboardOverview, error)
}

// DashboardHandler handles dashboard requests
type DashboardHandler struct {
	presenter
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, locale lifecycle.Locale) *DashboardHandler {
	return &DashboardHandler{presenter: newPresenter(locale), service: service}
}

// GetDashboard handles GET /api/users/{id}/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), r.PathValue("id"), h.localeFor(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}
