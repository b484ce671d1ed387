package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
)

// AuditRecorder writes audit events without failing the calling operation.
type AuditRecorder struct {
	repo repositories.AuditRepository
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(repo repositories.AuditRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// Record appends an audit event. Storage errors are logged, never returned.
func (r *AuditRecorder) Record(ctx context.Context, entityType, entityID string, actor entities.Actor, action string, details map[string]interface{}) {
	if r == nil || r.repo == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}

	event := &entities.AuditEvent{
		EntityType:   entityType,
		EntityID:     entityID,
		ActorType:    actor.Type,
		ActorDisplay: actor.Display,
		ActorID:      actor.ID,
		Action:       action,
		Details:      details,
	}

	if err := r.repo.Create(ctx, event); err != nil {
		log.Warn().
			Err(err).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Str("action", action).
			Msg("failed to record audit event")
	}
}
