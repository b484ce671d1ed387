package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

// LeadService defines the lead operations used by the handler.
type LeadService interface {
	TransitionStatus(ctx context.Context, leadID string, change entities.LeadStatusChange, actor entities.Actor) error
	ListQueue(ctx context.Context, query services.LeadQueueQuery) ([]*entities.LeadOpportunity, error)
	ListForTranscript(ctx context.Context, transcriptID string) ([]*entities.LeadOpportunity, error)
}

// LeadHandler handles the follow-up queue and lead status changes
type LeadHandler struct {
	service LeadService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(service LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

type leadStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
	DueAt  *string `json:"due_at"`
}

// UpdateStatus handles POST /v1/leads/{id}/status
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload leadStatusRequest
	if !decodeBody(r, &payload) {
		respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidStatus)
		return
	}
	if _, ok := entities.ParseLeadStatus(payload.Status); !ok {
		respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidStatus)
		return
	}

	change := entities.LeadStatusChange{Status: payload.Status, Notes: payload.Notes}
	if payload.DueAt != nil {
		dueAt, err := time.Parse(time.RFC3339, *payload.DueAt)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, apperrors.CodeInvalidDueAt)
			return
		}
		dueAt = dueAt.UTC()
		change.DueAt = &dueAt
	}

	if err := h.service.TransitionStatus(r.Context(), r.PathValue("id"), change, actorFromRequest(r)); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListQueue handles GET /v1/leads
func (h *LeadHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	leads, err := h.service.ListQueue(r.Context(), services.LeadQueueQuery{
		View:         services.QueueView(query.Get("view")),
		Query:        query.Get("q"),
		TranscriptID: query.Get("transcript_id"),
		Limit:        queryInt(r, "limit"),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if leads == nil {
		leads = []*entities.LeadOpportunity{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"leads": leads,
		"count": len(leads),
	})
}

// ListForTranscript handles GET /v1/transcripts/{id}/leads
func (h *LeadHandler) ListForTranscript(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.ListForTranscript(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if leads == nil {
		leads = []*entities.LeadOpportunity{}
	}

	respondWithJSON(w, http.StatusOK, leads)
}
