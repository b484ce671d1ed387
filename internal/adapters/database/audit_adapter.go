package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

var auditColumns = []interface{}{
	"id", "created_at", "entity_type", "entity_id", "actor_type",
	"actor_display", "actor_id", "action", "details",
}

type auditRow struct {
	ID           string    `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	EntityType   string    `db:"entity_type"`
	EntityID     string    `db:"entity_id"`
	ActorType    string    `db:"actor_type"`
	ActorDisplay string    `db:"actor_display"`
	ActorID      string    `db:"actor_id"`
	Action       string    `db:"action"`
	Details      []byte    `db:"details"`
}

func (r auditRow) toEntity() *entities.AuditEvent {
	return &entities.AuditEvent{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		ActorType:    entities.ActorType(r.ActorType),
		ActorDisplay: r.ActorDisplay,
		ActorID:      r.ActorID,
		Action:       r.Action,
		Details:      decodeJSONColumn(r.Details),
	}
}

type dayCountRow struct {
	Day   string `db:"day"`
	Count int    `db:"count"`
}

// AuditAdapter implements the AuditRepository interface.
// Inserts are built with goqu; reads scan into tagged rows with sqlx.
type AuditAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	dbx    *sqlx.DB
}

// NewAuditAdapter creates a new audit adapter
func NewAuditAdapter(client *postgres.Client) repositories.AuditRepository {
	return &AuditAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		dbx:    sqlx.NewDb(client.DB(), "postgres"),
	}
}

// Create appends an audit event
func (a *AuditAdapter) Create(ctx context.Context, event *entities.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	record := goqu.Record{
		"id":            event.ID,
		"created_at":    event.CreatedAt,
		"entity_type":   event.EntityType,
		"entity_id":     event.EntityID,
		"actor_type":    string(event.ActorType),
		"actor_display": event.ActorDisplay,
		"actor_id":      event.ActorID,
		"action":        event.Action,
		"details":       encodeJSONColumn(event.Details),
	}

	query, args, err := a.db.Insert("audit_events").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create audit event", err)
	}
	return nil
}

// ListByEntity lists events for one entity, newest first
func (a *AuditAdapter) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entities.AuditEvent, error) {
	ds := a.db.Select(auditColumns...).
		From("audit_events").
		Where(goqu.Ex{"entity_type": entityType, "entity_id": entityID}).
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.selectEvents(ctx, ds)
}

// ListRecent lists the most recent events across all entities
func (a *AuditAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.AuditEvent, error) {
	ds := a.db.Select(auditColumns...).
		From("audit_events").
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	return a.selectEvents(ctx, ds)
}

// CountActionsByDay buckets events with the given action by UTC day
func (a *AuditAdapter) CountActionsByDay(ctx context.Context, action string, since time.Time) (map[string]int, error) {
	query, args, err := a.db.Select(
		goqu.L("to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD')").As("day"),
		goqu.COUNT("*").As("count"),
	).
		From("audit_events").
		Where(
			goqu.C("action").Eq(action),
			goqu.C("created_at").Gte(since),
		).
		GroupBy(goqu.I("day")).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build activity query", err)
	}

	var rows []dayCountRow
	if err := a.dbx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to count audit actions", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Day] = row.Count
	}
	return counts, nil
}

func (a *AuditAdapter) selectEvents(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.AuditEvent, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build audit query", err)
	}

	var rows []auditRow
	if err := a.dbx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list audit events", err)
	}

	events := make([]*entities.AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEntity())
	}
	return events, nil
}
