package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// DashboardService defines the metrics operation used by the handler.
type DashboardService interface {
	GetMetrics(ctx context.Context) (*entities.DashboardMetrics, error)
}

// DashboardHandler serves the aggregated dashboard metrics
type DashboardHandler struct {
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetMetrics handles GET /v1/dashboard/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.GetMetrics(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, metrics)
}
