package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

var leadColumns = []interface{}{
	"id", "created_at", "updated_at", "transcript_id", "source_artifact_id",
	"model", "title", "reason", "next_action", "lead_score", "status",
	"owner", "due_at", "last_contacted_at", "notes", "metadata",
}

// upsertLeadQuery overwrites generated fields on conflict and keeps the
// staff-owned columns (owner, notes, last_contacted_at) and created_at.
const upsertLeadQuery = `
	INSERT INTO lead_opportunities
		(id, transcript_id, source_artifact_id, model, title, reason, next_action,
		 lead_score, status, due_at, metadata, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13)
	ON CONFLICT (transcript_id)
	DO UPDATE SET
		source_artifact_id = EXCLUDED.source_artifact_id,
		model = EXCLUDED.model,
		title = EXCLUDED.title,
		reason = EXCLUDED.reason,
		next_action = EXCLUDED.next_action,
		lead_score = EXCLUDED.lead_score,
		status = EXCLUDED.status,
		due_at = EXCLUDED.due_at,
		metadata = EXCLUDED.metadata,
		updated_at = EXCLUDED.updated_at
	RETURNING id
`

// LeadAdapter implements the LeadRepository interface
type LeadAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewLeadAdapter creates a new lead adapter
func NewLeadAdapter(client *postgres.Client) repositories.LeadRepository {
	return &LeadAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// UpsertByTranscriptID inserts or overwrites the transcript's lead in a single statement
func (a *LeadAdapter) UpsertByTranscriptID(ctx context.Context, lead *entities.LeadOpportunity) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = now
	}
	if lead.Status == "" {
		lead.Status = entities.LeadStatusOpen
	}

	var id string
	err := a.client.DB().QueryRowContext(
		ctx,
		upsertLeadQuery,
		lead.ID,
		lead.TranscriptID,
		nullString(lead.SourceArtifactID),
		lead.Model,
		lead.Title,
		lead.Reason,
		lead.NextAction,
		lead.LeadScore,
		string(lead.Status),
		nullTime(lead.DueAt),
		encodeJSONColumn(lead.Metadata),
		lead.CreatedAt,
		lead.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", apperrors.NewInternalError("failed to upsert lead opportunity", err)
	}

	return id, nil
}

// GetByID retrieves a lead by ID
func (a *LeadAdapter) GetByID(ctx context.Context, id string) (*entities.LeadOpportunity, error) {
	return a.getByField(ctx, "id", id)
}

// GetByTranscriptID retrieves the lead for a transcript
func (a *LeadAdapter) GetByTranscriptID(ctx context.Context, transcriptID string) (*entities.LeadOpportunity, error) {
	return a.getByField(ctx, "transcript_id", transcriptID)
}

func (a *LeadAdapter) getByField(ctx context.Context, field, value string) (*entities.LeadOpportunity, error) {
	query, args, err := a.db.Select(leadColumns...).
		From("lead_opportunities").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	lead, err := scanLead(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("lead with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get lead", err)
	}
	return lead, nil
}

// UpdateStatus applies a status patch
func (a *LeadAdapter) UpdateStatus(ctx context.Context, id string, patch repositories.LeadStatusPatch) error {
	record := goqu.Record{
		"status":     string(patch.Status),
		"notes":      nullString(patch.Notes),
		"updated_at": patch.UpdatedAt,
	}
	if patch.DueAt != nil {
		record["due_at"] = *patch.DueAt
	}
	if patch.LastContactedAt != nil {
		record["last_contacted_at"] = *patch.LastContactedAt
	}

	query, args, err := a.db.Update("lead_opportunities").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update lead status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("lead with id %s not found", id))
	}
	return nil
}

// List retrieves leads matching the filter in queue order
func (a *LeadAdapter) List(ctx context.Context, filter repositories.LeadFilter) ([]*entities.LeadOpportunity, error) {
	ds := a.db.Select(leadColumns...).From("lead_opportunities")

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}
	if filter.DueBefore != nil {
		ds = ds.Where(goqu.C("due_at").Lt(*filter.DueBefore))
	}
	if filter.TranscriptID != "" {
		ds = ds.Where(goqu.Ex{"transcript_id": filter.TranscriptID})
	}
	if len(filter.TranscriptIDs) > 0 {
		ds = ds.Where(goqu.C("transcript_id").In(filter.TranscriptIDs))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		pseudonymMatches := a.db.From("transcripts").
			Select("id").
			Where(goqu.C("patient_pseudonym").ILike(pattern))
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("reason").ILike(pattern),
			goqu.C("transcript_id").In(pseudonymMatches),
		))
	}

	ds = ds.Order(
		goqu.L(statusRankSQL()).Asc(),
		goqu.I("lead_score").Desc(),
		goqu.I("created_at").Desc(),
	)

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list leads", err)
	}
	defer rows.Close()

	leads := make([]*entities.LeadOpportunity, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan lead", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate leads", err)
	}
	return leads, nil
}

// CountByStatus counts leads per status
func (a *LeadAdapter) CountByStatus(ctx context.Context) (map[entities.LeadStatus]int, error) {
	query, args, err := a.db.Select("status", goqu.COUNT("*")).
		From("lead_opportunities").
		GroupBy("status").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build count query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count leads", err)
	}
	defer rows.Close()

	counts := make(map[entities.LeadStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan lead count", err)
		}
		counts[entities.LeadStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate lead counts", err)
	}
	return counts, nil
}

// statusRankSQL mirrors LeadStatus.Rank for ORDER BY.
func statusRankSQL() string {
	statuses := entities.LeadStatuses()
	var b strings.Builder
	b.WriteString("CASE status")
	for _, s := range statuses {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", s, s.Rank())
	}
	fmt.Fprintf(&b, " ELSE %d END", len(statuses))
	return b.String()
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_")
	return replacer.Replace(value)
}

func scanLead(row rowScanner) (*entities.LeadOpportunity, error) {
	lead := &entities.LeadOpportunity{}
	var sourceArtifactID, owner, notes sql.NullString
	var dueAt, lastContactedAt sql.NullTime
	var status string
	var metadata []byte

	err := row.Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&lead.TranscriptID,
		&sourceArtifactID,
		&lead.Model,
		&lead.Title,
		&lead.Reason,
		&lead.NextAction,
		&lead.LeadScore,
		&status,
		&owner,
		&dueAt,
		&lastContactedAt,
		&notes,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	lead.SourceArtifactID = stringPtr(sourceArtifactID)
	lead.Status = entities.LeadStatus(status)
	lead.Owner = stringPtr(owner)
	lead.DueAt = timePtr(dueAt)
	lead.LastContactedAt = timePtr(lastContactedAt)
	lead.Notes = stringPtr(notes)
	lead.Metadata = decodeJSONColumn(metadata)
	return lead, nil
}
