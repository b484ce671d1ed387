package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 100
	auditListLimit    = 200
)

// IngestTranscriptInput is the payload accepted from upstream sources
type IngestTranscriptInput struct {
	PatientPseudonym string                 `json:"patient_pseudonym"`
	Source           string                 `json:"source"`
	SourceRef        *string                `json:"source_ref"`
	Text             string                 `json:"text"`
	IdempotencyKey   string                 `json:"idempotency_key"`
	Meta             map[string]interface{} `json:"meta"`
}

// TranscriptPage is one page of the inbox
type TranscriptPage struct {
	Items      []*entities.TranscriptListItem `json:"items"`
	Limit      int                            `json:"limit"`
	Offset     int                            `json:"offset"`
	NextOffset *int                           `json:"next_offset"`
	HasMore    bool                           `json:"has_more"`
}

// TranscriptService handles transcript ingestion, review and processing
type TranscriptService struct {
	transcripts repositories.TranscriptRepository
	artifacts   repositories.ArtifactRepository
	auditRepo   repositories.AuditRepository
	audit       *AuditRecorder
	now         func() time.Time
}

// NewTranscriptService creates a new transcript service
func NewTranscriptService(
	transcripts repositories.TranscriptRepository,
	artifacts repositories.ArtifactRepository,
	auditRepo repositories.AuditRepository,
	audit *AuditRecorder,
) *TranscriptService {
	return &TranscriptService{
		transcripts: transcripts,
		artifacts:   artifacts,
		auditRepo:   auditRepo,
		audit:       audit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ingest stores a transcript once per idempotency key. The boolean reports
// whether a new row was created.
func (s *TranscriptService) Ingest(ctx context.Context, input IngestTranscriptInput) (*entities.Transcript, bool, error) {
	if strings.TrimSpace(input.PatientPseudonym) == "" ||
		strings.TrimSpace(input.Source) == "" ||
		strings.TrimSpace(input.Text) == "" ||
		strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, false, apperrors.NewValidationError(apperrors.CodeMissingFields)
	}

	transcript := &entities.Transcript{
		CreatedAt:        s.now(),
		PatientPseudonym: input.PatientPseudonym,
		Source:           input.Source,
		SourceRef:        input.SourceRef,
		RedactedText:     input.Text,
		IdempotencyKey:   input.IdempotencyKey,
		Status:           entities.TranscriptStatusNew,
		Meta:             input.Meta,
	}

	stored, created, err := s.transcripts.CreateIdempotent(ctx, transcript)
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info().
			Str("transcript_id", stored.ID).
			Str("source", stored.Source).
			Msg("transcript ingested")
	}
	return stored, created, nil
}

// List returns one inbox page. One extra row is fetched to detect more pages.
func (s *TranscriptService) List(ctx context.Context, filter repositories.TranscriptFilter) (*TranscriptPage, error) {
	limit := clampLimit(filter.Limit, defaultInboxLimit, maxInboxLimit)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	items, err := s.transcripts.List(ctx, repositories.TranscriptFilter{
		Source:           filter.Source,
		PatientPseudonym: filter.PatientPseudonym,
		Limit:            limit + 1,
		Offset:           offset,
	})
	if err != nil {
		return nil, err
	}

	page := &TranscriptPage{Limit: limit, Offset: offset}
	if len(items) > limit {
		items = items[:limit]
		next := offset + limit
		page.NextOffset = &next
		page.HasMore = true
	}
	page.Items = items
	return page, nil
}

// Get returns a transcript and records that it was viewed
func (s *TranscriptService) Get(ctx context.Context, id, from string, actor entities.Actor) (*entities.Transcript, error) {
	transcript, err := s.transcripts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fromValue interface{}
	if from != "" {
		fromValue = from
	}
	s.audit.Record(ctx, entities.AuditEntityTranscript, transcript.ID, actor, entities.AuditActionTranscriptViewed, map[string]interface{}{
		"ui":   "detail",
		"from": fromValue,
	})

	return transcript, nil
}

// Process approves a summary artifact and moves the transcript out of the inbox
func (s *TranscriptService) Process(ctx context.Context, transcriptID, artifactID string, actor entities.Actor) error {
	if strings.TrimSpace(artifactID) == "" {
		return apperrors.NewValidationError(apperrors.CodeMissingArtifact)
	}

	artifact, err := s.artifacts.GetForTranscript(ctx, transcriptID, artifactID)
	if err != nil {
		return err
	}
	if artifact.ArtifactType != entities.ArtifactTypeSummary {
		return apperrors.NewNotFoundError(apperrors.CodeNotFound)
	}

	if err := s.artifacts.Approve(ctx, artifact.ID, actor.ID, s.now()); err != nil {
		return err
	}
	if err := s.transcripts.MarkProcessed(ctx, transcriptID); err != nil {
		return err
	}

	s.audit.Record(ctx, entities.AuditEntityTranscript, transcriptID, actor, entities.AuditActionTranscriptProcessed, map[string]interface{}{
		"artifact_id": artifact.ID,
		"model":       artifact.Model,
	})
	return nil
}

// ListArtifacts returns the transcript's artifacts, newest first
func (s *TranscriptService) ListArtifacts(ctx context.Context, transcriptID string) ([]*entities.Artifact, error) {
	return s.artifacts.ListByTranscript(ctx, transcriptID)
}

// ListAudit returns the transcript's audit trail, newest first
func (s *TranscriptService) ListAudit(ctx context.Context, transcriptID string) ([]*entities.AuditEvent, error) {
	return s.auditRepo.ListByEntity(ctx, entities.AuditEntityTranscript, transcriptID, auditListLimit)
}
