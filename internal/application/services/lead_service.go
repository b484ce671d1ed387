package services

import (
	"context"
	"strings"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

// QueueView selects which leads the queue shows
type QueueView string

const (
	QueueViewActive  QueueView = "active"
	QueueViewOverdue QueueView = "overdue"
	QueueViewAll     QueueView = "all"
)

const (
	defaultQueueLimit = 50
	maxQueueLimit     = 200
)

// LeadQueueQuery holds the queue listing parameters
type LeadQueueQuery struct {
	View         QueueView
	Query        string
	TranscriptID string
	Limit        int
}

// LeadService manages the lead lifecycle and the follow-up queue
type LeadService struct {
	leads    repositories.LeadRepository
	audit    *AuditRecorder
	eventBus providers.EventBus
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewLeadService creates a new lead service
func NewLeadService(leads repositories.LeadRepository, audit *AuditRecorder, eventBus providers.EventBus) *LeadService {
	return &LeadService{
		leads:    leads,
		audit:    audit,
		eventBus: eventBus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics attaches transition counters
func (s *LeadService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// TransitionStatus moves a lead to a new status. Any recognized status may
// follow any other. Notes are always overwritten; a nil value clears them.
func (s *LeadService) TransitionStatus(ctx context.Context, leadID string, change entities.LeadStatusChange, actor entities.Actor) error {
	next, ok := entities.ParseLeadStatus(change.Status)
	if !ok {
		return apperrors.NewValidationError(apperrors.CodeInvalidStatus)
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}

	now := s.now()
	patch := repositories.LeadStatusPatch{
		Status:    next,
		Notes:     change.Notes,
		DueAt:     change.DueAt,
		UpdatedAt: now,
	}
	if next == entities.LeadStatusContacted {
		patch.LastContactedAt = &now
	}

	if err := s.leads.UpdateStatus(ctx, lead.ID, patch); err != nil {
		return err
	}

	var notes interface{}
	if change.Notes != nil {
		notes = *change.Notes
	}
	s.audit.Record(ctx, entities.AuditEntityLead, lead.ID, actor, entities.AuditActionLeadStatusUpdated, map[string]interface{}{
		"previous_status": string(lead.Status),
		"next_status":     string(next),
		"notes":           notes,
	})

	observability.RecordLeadTransition(ctx, s.metrics, string(lead.Status), string(next))
	publishLeadEvent(ctx, s.eventBus, entities.NewLeadEvent(lead.ID, lead.TranscriptID, entities.LeadEventTypeStatusChanged, next, lead.Status))

	return nil
}

// ListQueue returns leads in queue order
func (s *LeadService) ListQueue(ctx context.Context, query LeadQueueQuery) ([]*entities.LeadOpportunity, error) {
	filter := repositories.LeadFilter{
		Query:        strings.TrimSpace(query.Query),
		TranscriptID: query.TranscriptID,
		Limit:        clampLimit(query.Limit, defaultQueueLimit, maxQueueLimit),
	}

	switch query.View {
	case QueueViewAll:
	case QueueViewOverdue:
		now := s.now()
		filter.Statuses = activeStatuses()
		filter.DueBefore = &now
	case QueueViewActive, "":
		filter.Statuses = activeStatuses()
	default:
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidView)
	}

	leads, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	entities.SortLeadQueue(leads)
	return leads, nil
}

// ListForTranscript returns the transcript's lead rows
func (s *LeadService) ListForTranscript(ctx context.Context, transcriptID string) ([]*entities.LeadOpportunity, error) {
	return s.ListQueue(ctx, LeadQueueQuery{View: QueueViewAll, TranscriptID: transcriptID})
}

func activeStatuses() []entities.LeadStatus {
	active := make([]entities.LeadStatus, 0, 4)
	for _, status := range entities.LeadStatuses() {
		if status.Active() {
			active = append(active, status)
		}
	}
	return active
}

func clampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
