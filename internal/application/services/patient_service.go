package services

import (
	"context"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
)

const patientHistoryLimit = 20

// PatientService builds the staff-facing patient profile
type PatientService struct {
	patients    repositories.PatientRepository
	transcripts repositories.TranscriptRepository
	leads       repositories.LeadRepository
	audit       *AuditRecorder
}

// NewPatientService creates a new patient service
func NewPatientService(
	patients repositories.PatientRepository,
	transcripts repositories.TranscriptRepository,
	leads repositories.LeadRepository,
	audit *AuditRecorder,
) *PatientService {
	return &PatientService{
		patients:    patients,
		transcripts: transcripts,
		leads:       leads,
		audit:       audit,
	}
}

// GetProfile returns the masked profile with the latest interaction and recent
// counts over the patient's 20 newest transcripts, and records the view.
func (s *PatientService) GetProfile(ctx context.Context, patientID string, actor entities.Actor) (*entities.PatientProfile, error) {
	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	transcripts, err := s.transcripts.List(ctx, repositories.TranscriptFilter{
		PatientPseudonym: patient.Pseudonym,
		IncludeProcessed: true,
		Limit:            patientHistoryLimit,
	})
	if err != nil {
		return nil, err
	}

	var leads []*entities.LeadOpportunity
	if len(transcripts) > 0 {
		ids := make([]string, 0, len(transcripts))
		for _, t := range transcripts {
			ids = append(ids, t.ID)
		}
		leads, err = s.leads.List(ctx, repositories.LeadFilter{TranscriptIDs: ids, Limit: patientHistoryLimit})
		if err != nil {
			return nil, err
		}
	}

	profile := &entities.PatientProfile{
		Patient: entities.PatientSummary{
			ID:               patient.ID,
			Pseudonym:        patient.Pseudonym,
			DisplayName:      patient.DisplayName(),
			ProfileImageURL:  patient.ProfileImageURL,
			EmailMasked:      patient.EmailMasked,
			EmailVerified:    patient.EmailVerified,
			PhoneMasked:      patient.PhoneMasked,
			PhoneVerified:    patient.PhoneVerified,
			PreferredChannel: patient.PreferredChannel,
			ConsentStatus:    patient.ConsentStatus,
		},
		Recent: entities.RecentActivityCounts{
			TranscriptCount: len(transcripts),
			LeadCount:       len(leads),
		},
	}

	if len(transcripts) > 0 {
		latest := transcripts[0]
		interaction := &entities.LatestInteraction{
			TranscriptID:        latest.ID,
			TranscriptCreatedAt: latest.CreatedAt,
		}
		for _, lead := range leads {
			if lead.TranscriptID == latest.ID {
				id, status := lead.ID, lead.Status
				interaction.LeadID = &id
				interaction.LeadStatus = &status
				break
			}
		}
		profile.LatestInteraction = interaction
	}

	s.audit.Record(ctx, entities.AuditEntityPatient, patient.ID, actor, entities.AuditActionPatientViewed, map[string]interface{}{
		"ui":               "profile",
		"transcript_count": profile.Recent.TranscriptCount,
		"lead_count":       profile.Recent.LeadCount,
	})

	return profile, nil
}
