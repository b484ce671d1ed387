package database

import (
	"context"
	"database/sql"
	"errors"
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

var transcriptColumns = []interface{}{
	"id", "created_at", "patient_pseudonym", "source", "source_ref",
	"redacted_text", "idempotency_key", "status", "meta",
}

// TranscriptAdapter implements the TranscriptRepository interface
type TranscriptAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTranscriptAdapter creates a new transcript adapter
func NewTranscriptAdapter(client *postgres.Client) repositories.TranscriptRepository {
	return &TranscriptAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateIdempotent inserts a transcript, returning the existing row when the idempotency key is taken
func (a *TranscriptAdapter) CreateIdempotent(ctx context.Context, transcript *entities.Transcript) (*entities.Transcript, bool, error) {
	if transcript.ID == "" {
		transcript.ID = uuid.New().String()
	}
	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = time.Now().UTC()
	}
	if transcript.Status == "" {
		transcript.Status = entities.TranscriptStatusNew
	}

	record := goqu.Record{
		"id":                transcript.ID,
		"created_at":        transcript.CreatedAt,
		"patient_pseudonym": transcript.PatientPseudonym,
		"source":            transcript.Source,
		"source_ref":        nullString(transcript.SourceRef),
		"redacted_text":     transcript.RedactedText,
		"idempotency_key":   transcript.IdempotencyKey,
		"status":            string(transcript.Status),
		"meta":              encodeJSONColumn(transcript.Meta),
	}

	query, args, err := a.db.Insert("transcripts").
		Rows(record).
		OnConflict(goqu.DoNothing()).
		Returning("id").
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build insert query", err)
	}

	var id string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := a.getByField(ctx, "idempotency_key", transcript.IdempotencyKey)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to create transcript", err)
	}

	return transcript, true, nil
}

// GetByID retrieves a transcript by ID
func (a *TranscriptAdapter) GetByID(ctx context.Context, id string) (*entities.Transcript, error) {
	return a.getByField(ctx, "id", id)
}

func (a *TranscriptAdapter) getByField(ctx context.Context, field, value string) (*entities.Transcript, error) {
	query, args, err := a.db.Select(transcriptColumns...).
		From("transcripts").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	transcript := &entities.Transcript{}
	var sourceRef sql.NullString
	var meta []byte
	var status string

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&transcript.ID,
		&transcript.CreatedAt,
		&transcript.PatientPseudonym,
		&transcript.Source,
		&sourceRef,
		&transcript.RedactedText,
		&transcript.IdempotencyKey,
		&status,
		&meta,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("transcript with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get transcript", err)
	}

	transcript.SourceRef = stringPtr(sourceRef)
	transcript.Status = entities.TranscriptStatus(status)
	transcript.Meta = decodeJSONColumn(meta)
	return transcript, nil
}

// List retrieves transcripts newest first. Processed rows are skipped unless the filter includes them.
func (a *TranscriptAdapter) List(ctx context.Context, filter repositories.TranscriptFilter) ([]*entities.TranscriptListItem, error) {
	ds := a.db.Select("id", "created_at", "patient_pseudonym", "source", "source_ref").
		From("transcripts")

	if !filter.IncludeProcessed {
		ds = ds.Where(goqu.C("status").Neq(string(entities.TranscriptStatusProcessed)))
	}

	if filter.Source != "" {
		ds = ds.Where(goqu.Ex{"source": filter.Source})
	}
	if filter.PatientPseudonym != "" {
		ds = ds.Where(goqu.Ex{"patient_pseudonym": filter.PatientPseudonym})
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list transcripts", err)
	}
	defer rows.Close()

	items := make([]*entities.TranscriptListItem, 0)
	for rows.Next() {
		item := &entities.TranscriptListItem{}
		var sourceRef sql.NullString
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.PatientPseudonym, &item.Source, &sourceRef); err != nil {
			return nil, apperrors.NewInternalError("failed to scan transcript", err)
		}
		item.SourceRef = stringPtr(sourceRef)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate transcripts", err)
	}

	return items, nil
}

// MarkProcessed sets the transcript status to processed
func (a *TranscriptAdapter) MarkProcessed(ctx context.Context, id string) error {
	query, args, err := a.db.Update("transcripts").
		Set(goqu.Record{"status": string(entities.TranscriptStatusProcessed)}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update transcript", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("transcript with id %s not found", id))
	}

	return nil
}

// ListIDsWithoutLead pages through new transcripts that have no lead row
func (a *TranscriptAdapter) ListIDsWithoutLead(ctx context.Context, afterID string, limit int) ([]string, error) {
	ds := a.db.Select(goqu.I("t.id")).
		From(goqu.T("transcripts").As("t")).
		LeftJoin(
			goqu.T("lead_opportunities").As("l"),
			goqu.On(goqu.I("l.transcript_id").Eq(goqu.I("t.id"))),
		).
		Where(
			goqu.I("t.status").Eq(string(entities.TranscriptStatusNew)),
			goqu.I("l.id").IsNull(),
		)

	if afterID != "" {
		ds = ds.Where(goqu.I("t.id").Gt(afterID))
	}
	ds = ds.Order(goqu.I("t.id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build backfill query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list transcripts without lead", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan transcript id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate transcript ids", err)
	}

	return ids, nil
}

// CountByStatus counts transcripts in a status
func (a *TranscriptAdapter) CountByStatus(ctx context.Context, status entities.TranscriptStatus) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("transcripts").
		Where(goqu.Ex{"status": string(status)}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count transcripts", err)
	}
	return count, nil
}
