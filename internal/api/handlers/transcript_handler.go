package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

// TranscriptService defines the transcript operations used by the handler.
type TranscriptService interface {
	Ingest(ctx context.Context, input services.IngestTranscriptInput) (*entities.Transcript, bool, error)
	List(ctx context.Context, filter repositories.TranscriptFilter) (*services.TranscriptPage, error)
	Get(ctx context.Context, id, from string, actor entities.Actor) (*entities.Transcript, error)
	Process(ctx context.Context, transcriptID, artifactID string, actor entities.Actor) error
	ListArtifacts(ctx context.Context, transcriptID string) ([]*entities.Artifact, error)
	ListAudit(ctx context.Context, transcriptID string) ([]*entities.AuditEvent, error)
}

// TranscriptHandler handles transcript inbox and review requests
type TranscriptHandler struct {
	service TranscriptService
}

// NewTranscriptHandler creates a new transcript handler
func NewTranscriptHandler(service TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

type processRequest struct {
	ArtifactID string `json:"artifact_id"`
}

// IngestTranscript handles POST /v1/transcripts
func (h *TranscriptHandler) IngestTranscript(w http.ResponseWriter, r *http.Request) {
	var input services.IngestTranscriptInput
	if !decodeBody(r, &input) {
		respondWithError(w, http.StatusBadRequest, apperrors.CodeMissingFields)
		return
	}

	transcript, created, err := h.service.Ingest(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, transcript)
}

// ListTranscripts handles GET /v1/transcripts
func (h *TranscriptHandler) ListTranscripts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.service.List(r.Context(), repositories.TranscriptFilter{
		Source:           query.Get("source"),
		PatientPseudonym: query.Get("patient_pseudonym"),
		Limit:            queryInt(r, "limit"),
		Offset:           queryInt(r, "offset"),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// GetTranscript handles GET /v1/transcripts/{id}
func (h *TranscriptHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	transcript, err := h.service.Get(r.Context(), r.PathValue("id"), r.URL.Query().Get("from"), actorFromRequest(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, transcript)
}

// ProcessTranscript handles POST /v1/transcripts/{id}/process
func (h *TranscriptHandler) ProcessTranscript(w http.ResponseWriter, r *http.Request) {
	var payload processRequest
	if !decodeBody(r, &payload) {
		respondWithError(w, http.StatusBadRequest, apperrors.CodeMissingArtifact)
		return
	}

	if err := h.service.Process(r.Context(), r.PathValue("id"), payload.ArtifactID, actorFromRequest(r)); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListArtifacts handles GET /v1/transcripts/{id}/artifacts
func (h *TranscriptHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.service.ListArtifacts(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if artifacts == nil {
		artifacts = []*entities.Artifact{}
	}

	respondWithJSON(w, http.StatusOK, artifacts)
}

// ListAudit handles GET /v1/transcripts/{id}/audit
func (h *TranscriptHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListAudit(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if events == nil {
		events = []*entities.AuditEvent{}
	}

	respondWithJSON(w, http.StatusOK, events)
}
