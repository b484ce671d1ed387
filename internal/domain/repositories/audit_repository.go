package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// AuditRepository defines the interface for the append-only audit log
type AuditRepository interface {
	// Create appends an audit event
	Create(ctx context.Context, event *entities.AuditEvent) error

	// ListByEntity lists events for one entity, newest first
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entities.AuditEvent, error)

	// ListRecent lists the most recent events across all entities
	ListRecent(ctx context.Context, limit int) ([]*entities.AuditEvent, error)

	// CountActionsByDay buckets events with the given action by UTC day since the given time
	CountActionsByDay(ctx context.Context, action string, since time.Time) (map[string]int, error)
}
