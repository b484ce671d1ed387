package repositories

import (
	"context"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// PatientRepository defines read access to masked patient records
type PatientRepository interface {
	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id string) (*entities.Patient, error)
}
