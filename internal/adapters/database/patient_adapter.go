package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

var patientColumns = []interface{}{
	"id", "pseudonym", "masked_name", "patient_profile_image_url", "email_masked",
	"email_verified", "phone_masked", "phone_verified", "preferred_channel", "consent_status",
}

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	db  *goqu.Database
	dbx *sqlx.DB
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		db:  goqu.New("postgres", client.DB()),
		dbx: sqlx.NewDb(client.DB(), "postgres"),
	}
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient := &entities.Patient{}
	err = a.dbx.GetContext(ctx, patient, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}
	return patient, nil
}
