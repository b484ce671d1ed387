package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

// GenerationService defines the model-backed operations used by the handler.
type GenerationService interface {
	GenerateSummary(ctx context.Context, transcriptID, model string, actor entities.Actor) (*services.SummaryResult, error)
	GenerateLeads(ctx context.Context, transcriptID, model string, actor entities.Actor) (*services.LeadGenerationResult, error)
	WarmupModel(ctx context.Context, model string) error
}

// AIHandler handles summary, lead extraction and warmup requests
type AIHandler struct {
	service GenerationService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(service GenerationService) *AIHandler {
	return &AIHandler{service: service}
}

type modelRequest struct {
	Model string `json:"model"`
}

// summaryResponse is the stored artifact plus the outcome of lead extraction
type summaryResponse struct {
	*entities.Artifact
	LeadCount   int    `json:"lead_count"`
	LeadID      string `json:"lead_id,omitempty"`
	LeadWarning string `json:"lead_warning,omitempty"`
}

type leadsResponse struct {
	LeadCount   int      `json:"lead_count"`
	LeadID      string   `json:"lead_id,omitempty"`
	Warning     string   `json:"warning,omitempty"`
	PolicyFlags []string `json:"policy_flags,omitempty"`
}

// GenerateSummary handles POST /v1/transcripts/{id}/ai/summary
func (h *AIHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	model, ok := readModel(w, r)
	if !ok {
		return
	}

	result, err := h.service.GenerateSummary(r.Context(), r.PathValue("id"), model, actorFromRequest(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summaryResponse{
		Artifact:    result.Artifact,
		LeadCount:   result.LeadCount,
		LeadID:      result.LeadID,
		LeadWarning: result.LeadWarning,
	})
}

// GenerateLeads handles POST /v1/transcripts/{id}/ai/leads
func (h *AIHandler) GenerateLeads(w http.ResponseWriter, r *http.Request) {
	model, ok := readModel(w, r)
	if !ok {
		return
	}

	result, err := h.service.GenerateLeads(r.Context(), r.PathValue("id"), model, actorFromRequest(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, leadsResponse{
		LeadCount:   result.LeadCount,
		LeadID:      result.LeadID,
		Warning:     result.Warning,
		PolicyFlags: result.PolicyFlags,
	})
}

// WarmupModel handles POST /v1/ai/models/warmup
func (h *AIHandler) WarmupModel(w http.ResponseWriter, r *http.Request) {
	model, ok := readModel(w, r)
	if !ok {
		return
	}

	if err := h.service.WarmupModel(r.Context(), model); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"model": model,
	})
}

func readModel(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload modelRequest
	if !decodeBody(r, &payload) || payload.Model == "" {
		respondWithError(w, http.StatusBadRequest, apperrors.CodeMissingModel)
		return "", false
	}
	return payload.Model, true
}
