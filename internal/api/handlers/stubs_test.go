package handlers_test

import (
	"context"

	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
)

type stubTranscriptService struct {
	ingested    *services.IngestTranscriptInput
	created     bool
	filter      repositories.TranscriptFilter
	viewedFrom  string
	actor       entities.Actor
	processedID string
	err         error
}

func (s *stubTranscriptService) Ingest(ctx context.Context, input services.IngestTranscriptInput) (*entities.Transcript, bool, error) {
	s.ingested = &input
	if s.err != nil {
		return nil, false, s.err
	}
	return &entities.Transcript{ID: "t-1", PatientPseudonym: input.PatientPseudonym, Status: entities.TranscriptStatusNew}, s.created, nil
}

func (s *stubTranscriptService) List(ctx context.Context, filter repositories.TranscriptFilter) (*services.TranscriptPage, error) {
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	next := 20
	return &services.TranscriptPage{
		Items:      []*entities.TranscriptListItem{{ID: "t-1"}},
		Limit:      20,
		NextOffset: &next,
		HasMore:    true,
	}, nil
}

func (s *stubTranscriptService) Get(ctx context.Context, id, from string, actor entities.Actor) (*entities.Transcript, error) {
	s.viewedFrom = from
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Transcript{ID: id}, nil
}

func (s *stubTranscriptService) Process(ctx context.Context, transcriptID, artifactID string, actor entities.Actor) error {
	s.processedID = artifactID
	s.actor = actor
	return s.err
}

func (s *stubTranscriptService) ListArtifacts(ctx context.Context, transcriptID string) ([]*entities.Artifact, error) {
	return nil, s.err
}

func (s *stubTranscriptService) ListAudit(ctx context.Context, transcriptID string) ([]*entities.AuditEvent, error) {
	return []*entities.AuditEvent{{ID: "a-1", Action: entities.AuditActionTranscriptViewed}}, s.err
}

type stubGenerationService struct {
	summary *services.SummaryResult
	leads   *services.LeadGenerationResult
	model   string
	actor   entities.Actor
	err     error
}

func (s *stubGenerationService) GenerateSummary(ctx context.Context, transcriptID, model string, actor entities.Actor) (*services.SummaryResult, error) {
	s.model = model
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubGenerationService) GenerateLeads(ctx context.Context, transcriptID, model string, actor entities.Actor) (*services.LeadGenerationResult, error) {
	s.model = model
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return s.leads, nil
}

func (s *stubGenerationService) WarmupModel(ctx context.Context, model string) error {
	s.model = model
	return s.err
}

type stubLeadService struct {
	change *entities.LeadStatusChange
	query  services.LeadQueueQuery
	leads  []*entities.LeadOpportunity
	err    error
}

func (s *stubLeadService) TransitionStatus(ctx context.Context, leadID string, change entities.LeadStatusChange, actor entities.Actor) error {
	s.change = &change
	return s.err
}

func (s *stubLeadService) ListQueue(ctx context.Context, query services.LeadQueueQuery) ([]*entities.LeadOpportunity, error) {
	s.query = query
	return s.leads, s.err
}

func (s *stubLeadService) ListForTranscript(ctx context.Context, transcriptID string) ([]*entities.LeadOpportunity, error) {
	return s.leads, s.err
}

type stubDashboardService struct {
	metrics *entities.DashboardMetrics
	err     error
}

func (s *stubDashboardService) GetMetrics(ctx context.Context) (*entities.DashboardMetrics, error) {
	return s.metrics, s.err
}

type stubPatientService struct {
	patientID string
	actor     entities.Actor
	err       error
}

func (s *stubPatientService) GetProfile(ctx context.Context, patientID string, actor entities.Actor) (*entities.PatientProfile, error) {
	s.patientID = patientID
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &entities.PatientProfile{
		Patient: entities.PatientSummary{ID: patientID, Pseudonym: "PT-1001", DisplayName: "PT-1001"},
		Recent:  entities.RecentActivityCounts{TranscriptCount: 1},
	}, nil
}
