package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// PatientService defines the patient operations used by the handler.
type PatientService interface {
	GetProfile(ctx context.Context, patientID string, actor entities.Actor) (*entities.PatientProfile, error)
}

// PatientHandler handles patient profile requests
type PatientHandler struct {
	service PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(service PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// GetPatient handles GET /v1/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), r.PathValue("id"), actorFromRequest(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}
