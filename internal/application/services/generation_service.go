package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/application/generation"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/evaluation"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

const (
	defaultGenerateTimeout = 30 * time.Second
	defaultWarmupTimeout   = 60 * time.Second
)

// GenerationConfig holds timeouts and lead policy for the pipeline
type GenerationConfig struct {
	GenerateTimeout time.Duration
	WarmupTimeout   time.Duration
	// ProtectWorked keeps a lead that staff already moved out of open.
	ProtectWorked bool
	MinLeadScore  float64
}

// SummaryResult is the outcome of the summary pipeline. A failed lead
// extraction does not fail the summary; it is reported in LeadWarning.
type SummaryResult struct {
	Artifact    *entities.Artifact
	LeadCount   int
	LeadID      string
	LeadWarning string
}

// LeadGenerationResult is the outcome of one lead extraction
type LeadGenerationResult struct {
	LeadCount   int
	LeadID      string
	Warning     string
	PolicyFlags []string
}

// GenerationService runs transcripts through the text-generation backend and
// persists the resulting summaries and leads.
type GenerationService struct {
	transcripts repositories.TranscriptRepository
	artifacts   repositories.ArtifactRepository
	leads       repositories.LeadRepository
	generator   providers.TextGenerator
	audit       *AuditRecorder
	eventBus    providers.EventBus
	guardrails  *evaluation.Guardrails
	metrics     *observability.Metrics
	config      GenerationConfig
	now         func() time.Time
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	transcripts repositories.TranscriptRepository,
	artifacts repositories.ArtifactRepository,
	leads repositories.LeadRepository,
	generator providers.TextGenerator,
	audit *AuditRecorder,
	eventBus providers.EventBus,
	config GenerationConfig,
) *GenerationService {
	if config.GenerateTimeout <= 0 {
		config.GenerateTimeout = defaultGenerateTimeout
	}
	if config.WarmupTimeout <= 0 {
		config.WarmupTimeout = defaultWarmupTimeout
	}
	return &GenerationService{
		transcripts: transcripts,
		artifacts:   artifacts,
		leads:       leads,
		generator:   generator,
		audit:       audit,
		eventBus:    eventBus,
		guardrails:  evaluation.NewGuardrails(evaluation.GuardrailConfig{MinLeadScore: config.MinLeadScore}),
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics attaches pipeline counters
func (s *GenerationService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// ValidateModel checks the model name against the allow-list
func ValidateModel(model string) error {
	if model == "" {
		return apperrors.NewValidationError(apperrors.CodeMissingModel)
	}
	if _, ok := entities.ParseAllowedModel(model); !ok {
		return apperrors.NewValidationError(apperrors.CodeModelNotAllowed)
	}
	return nil
}

// GenerateSummary summarizes a transcript, stores the summary as an artifact
// and then attempts lead extraction with the artifact as provenance.
func (s *GenerationService) GenerateSummary(ctx context.Context, transcriptID, model string, actor entities.Actor) (*SummaryResult, error) {
	if err := ValidateModel(model); err != nil {
		return nil, err
	}

	transcript, err := s.transcripts.GetByID(ctx, transcriptID)
	if err != nil {
		return nil, err
	}

	prompt, err := generation.BuildPrompt(generation.TaskSummarize, transcript.RedactedText)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build summary prompt", err)
	}

	raw, latency, err := s.generate(ctx, model, prompt, s.config.GenerateTimeout)
	if err != nil {
		log.Error().Err(err).Str("transcript_id", transcriptID).Str("model", model).Msg("summary generation failed")
		return nil, apperrors.NewExternalError(apperrors.CodeBackendUnavailable, err)
	}

	parsed := generation.ParseSummary(raw)
	if parsed.Strategy != generation.StrategyDirectJSON {
		observability.RecordParseFallback(ctx, s.metrics, parsed.Strategy)
	}

	artifact := &entities.Artifact{
		TranscriptID: transcript.ID,
		ArtifactType: entities.ArtifactTypeSummary,
		Model:        model,
		Status:       entities.ArtifactStatusGenerated,
		Content:      parsed.Text,
		Meta: map[string]interface{}{
			"latency_ms":     latency.Milliseconds(),
			"parse_strategy": parsed.Strategy,
		},
		CreatedAt: s.now(),
	}
	if err := s.artifacts.Create(ctx, artifact); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, entities.AuditEntityTranscript, transcript.ID, actor, entities.AuditActionSummaryGenerated, map[string]interface{}{
		"model":       model,
		"artifact_id": artifact.ID,
	})

	result := &SummaryResult{Artifact: artifact}

	leadResult, err := s.extractLead(ctx, transcript, model, entities.LeadOriginSummaryPipeline, &artifact.ID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("transcript_id", transcript.ID).
			Str("artifact_id", artifact.ID).
			Msg("lead extraction after summary failed")
		result.LeadWarning = leadWarning(err)
		return result, nil
	}

	result.LeadCount = leadResult.LeadCount
	result.LeadID = leadResult.LeadID
	result.LeadWarning = leadResult.Warning
	return result, nil
}

// GenerateLeads runs lead extraction on demand, without an artifact.
func (s *GenerationService) GenerateLeads(ctx context.Context, transcriptID, model string, actor entities.Actor) (*LeadGenerationResult, error) {
	return s.generateLeads(ctx, transcriptID, model, actor, entities.LeadOriginManual)
}

// BackfillLead runs lead extraction for a transcript that has no lead yet.
func (s *GenerationService) BackfillLead(ctx context.Context, transcriptID, model string) (*LeadGenerationResult, error) {
	return s.generateLeads(ctx, transcriptID, model, entities.SystemActor("lead-backfill"), entities.LeadOriginBackfill)
}

func (s *GenerationService) generateLeads(ctx context.Context, transcriptID, model string, actor entities.Actor, origin entities.LeadOrigin) (*LeadGenerationResult, error) {
	if err := ValidateModel(model); err != nil {
		return nil, err
	}

	transcript, err := s.transcripts.GetByID(ctx, transcriptID)
	if err != nil {
		return nil, err
	}

	result, err := s.extractLead(ctx, transcript, model, origin, nil)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, entities.AuditEntityTranscript, transcript.ID, actor, entities.AuditActionLeadsGenerated, map[string]interface{}{
		"model":      model,
		"lead_count": result.LeadCount,
		"trigger":    string(origin),
	})

	return result, nil
}

// WarmupModel sends a throwaway prompt so the backend loads the model.
func (s *GenerationService) WarmupModel(ctx context.Context, model string) error {
	if err := ValidateModel(model); err != nil {
		return err
	}

	if _, _, err := s.generate(ctx, model, generation.WarmupPrompt, s.config.WarmupTimeout); err != nil {
		log.Error().Err(err).Str("model", model).Msg("model warmup failed")
		return apperrors.NewExternalError(apperrors.CodeBackendUnavailable, err)
	}

	log.Info().Str("model", model).Msg("model warmed")
	return nil
}

func (s *GenerationService) extractLead(
	ctx context.Context,
	transcript *entities.Transcript,
	model string,
	origin entities.LeadOrigin,
	sourceArtifactID *string,
) (*LeadGenerationResult, error) {
	prompt, err := generation.BuildPrompt(generation.TaskExtractLeads, transcript.RedactedText)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build lead prompt", err)
	}

	raw, latency, err := s.generate(ctx, model, prompt, s.config.GenerateTimeout)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.CodeBackendUnavailable, err)
	}

	parsed := generation.ParseLeadCandidates(raw)
	if parsed.Strategy != generation.StrategyDirectArray {
		observability.RecordParseFallback(ctx, s.metrics, parsed.Strategy)
	}

	drafts := generation.NormalizeLeadDrafts(parsed.Items)
	if len(drafts) == 0 {
		return &LeadGenerationResult{}, nil
	}
	draft := drafts[0]

	if s.config.ProtectWorked {
		existing, err := s.leads.GetByTranscriptID(ctx, transcript.ID)
		switch {
		case err == nil && existing.Status != entities.LeadStatusOpen:
			return &LeadGenerationResult{
				LeadID:  existing.ID,
				Warning: fmt.Sprintf("lead %s is %s; regeneration skipped", existing.ID, existing.Status),
			}, nil
		case err != nil && !apperrors.IsType(err, apperrors.ErrorTypeNotFound):
			return nil, err
		}
	}

	flags := evaluation.FlagStrings(s.guardrails.Check(draft))
	now := s.now()
	dueAt := now.Add(time.Duration(draft.DueInDays) * 24 * time.Hour)

	lead := &entities.LeadOpportunity{
		CreatedAt:        now,
		UpdatedAt:        now,
		TranscriptID:     transcript.ID,
		SourceArtifactID: sourceArtifactID,
		Model:            model,
		Title:            draft.Title,
		Reason:           draft.Reason,
		NextAction:       draft.NextAction,
		LeadScore:        draft.LeadScore,
		Status:           entities.LeadStatusOpen,
		DueAt:            &dueAt,
		Metadata: map[string]interface{}{
			"origin":           string(origin),
			"model":            model,
			"latency_ms":       latency.Milliseconds(),
			"outreach_channel": string(draft.OutreachChannel),
			"due_in_days":      draft.DueInDays,
			"policy_flags":     flags,
		},
	}

	leadID, err := s.leads.UpsertByTranscriptID(ctx, lead)
	if err != nil {
		return nil, err
	}

	observability.RecordLeadGenerated(ctx, s.metrics, string(origin), model)
	publishLeadEvent(ctx, s.eventBus, entities.NewLeadEvent(leadID, transcript.ID, entities.LeadEventTypeGenerated, entities.LeadStatusOpen, ""))

	if len(flags) > 0 {
		log.Info().
			Str("lead_id", leadID).
			Strs("policy_flags", flags).
			Msg("lead stored with policy flags")
	}

	return &LeadGenerationResult{LeadCount: 1, LeadID: leadID, PolicyFlags: flags}, nil
}

// generate calls the backend under its own deadline and reports latency.
func (s *GenerationService) generate(ctx context.Context, model, prompt string, timeout time.Duration) (string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.generator.Generate(ctx, model, prompt)
	return raw, time.Since(start), err
}

func leadWarning(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeExternal:
			return "lead_extraction_failed: " + apperrors.CodeBackendUnavailable
		case apperrors.ErrorTypeInternal:
			return "lead_extraction_failed: " + apperrors.CodeStorage
		}
	}
	return "lead_extraction_failed"
}
