package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

var artifactColumns = []interface{}{
	"id", "created_at", "transcript_id", "artifact_type", "model",
	"status", "content", "meta", "approved_at", "approved_by",
}

// ArtifactAdapter implements the ArtifactRepository interface
type ArtifactAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewArtifactAdapter creates a new artifact adapter
func NewArtifactAdapter(client *postgres.Client) repositories.ArtifactRepository {
	return &ArtifactAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new artifact
func (a *ArtifactAdapter) Create(ctx context.Context, artifact *entities.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":            artifact.ID,
		"created_at":    artifact.CreatedAt,
		"transcript_id": artifact.TranscriptID,
		"artifact_type": string(artifact.ArtifactType),
		"model":         artifact.Model,
		"status":        string(artifact.Status),
		"content":       artifact.Content,
		"meta":          encodeJSONColumn(artifact.Meta),
		"approved_at":   nullTime(artifact.ApprovedAt),
		"approved_by":   nullString(artifact.ApprovedBy),
	}

	query, args, err := a.db.Insert("transcript_artifacts").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create artifact", err)
	}

	return nil
}

// GetForTranscript retrieves an artifact that belongs to the given transcript
func (a *ArtifactAdapter) GetForTranscript(ctx context.Context, transcriptID, artifactID string) (*entities.Artifact, error) {
	query, args, err := a.db.Select(artifactColumns...).
		From("transcript_artifacts").
		Where(goqu.Ex{"id": artifactID, "transcript_id": transcriptID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	artifact, err := scanArtifact(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("artifact %s for transcript %s not found", artifactID, transcriptID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get artifact", err)
	}
	return artifact, nil
}

// Approve marks an artifact approved
func (a *ArtifactAdapter) Approve(ctx context.Context, artifactID, approvedBy string, approvedAt time.Time) error {
	query, args, err := a.db.Update("transcript_artifacts").
		Set(goqu.Record{
			"status":      string(entities.ArtifactStatusApproved),
			"approved_at": approvedAt,
			"approved_by": approvedBy,
		}).
		Where(goqu.Ex{"id": artifactID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to approve artifact", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("artifact with id %s not found", artifactID))
	}
	return nil
}

// ListByTranscript lists a transcript's artifacts, newest first
func (a *ArtifactAdapter) ListByTranscript(ctx context.Context, transcriptID string) ([]*entities.Artifact, error) {
	query, args, err := a.db.Select(artifactColumns...).
		From("transcript_artifacts").
		Where(goqu.Ex{"transcript_id": transcriptID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list artifacts", err)
	}
	defer rows.Close()

	artifacts := make([]*entities.Artifact, 0)
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan artifact", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate artifacts", err)
	}
	return artifacts, nil
}

// CountApprovedSummaries counts approved summary artifacts
func (a *ArtifactAdapter) CountApprovedSummaries(ctx context.Context) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("transcript_artifacts").
		Where(goqu.Ex{
			"artifact_type": string(entities.ArtifactTypeSummary),
			"status":        string(entities.ArtifactStatusApproved),
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count artifacts", err)
	}
	return count, nil
}

func scanArtifact(row rowScanner) (*entities.Artifact, error) {
	artifact := &entities.Artifact{}
	var artifactType, status string
	var meta []byte
	var approvedAt sql.NullTime
	var approvedBy sql.NullString

	err := row.Scan(
		&artifact.ID,
		&artifact.CreatedAt,
		&artifact.TranscriptID,
		&artifactType,
		&artifact.Model,
		&status,
		&artifact.Content,
		&meta,
		&approvedAt,
		&approvedBy,
	)
	if err != nil {
		return nil, err
	}

	artifact.ArtifactType = entities.ArtifactType(artifactType)
	artifact.Status = entities.ArtifactStatus(status)
	artifact.Meta = decodeJSONColumn(meta)
	artifact.ApprovedAt = timePtr(approvedAt)
	artifact.ApprovedBy = stringPtr(approvedBy)
	return artifact, nil
}
