package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/database"
	"github.com/zatekoja/transcript-triage/backend/internal/application/services"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLoggerWithLevel("triage-seed", cfg.Log.Env, cfg.Log.Level)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				audit_events,
				lead_opportunities,
				transcript_artifacts,
				transcripts,
				patients
			CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, `
		INSERT INTO patients (id, pseudonym, masked_name, email_masked, email_verified, phone_masked, phone_verified, preferred_channel, consent_status)
		VALUES
			('6f1c2a8e-0d4b-4a57-9d0e-1a2b3c4d5e01', 'PT-1001', 'J. D.', 'j***@example.org', TRUE, '***-***-0142', TRUE, 'phone', 'granted'),
			('6f1c2a8e-0d4b-4a57-9d0e-1a2b3c4d5e02', 'PT-1002', NULL, NULL, FALSE, '***-***-7781', TRUE, 'sms', 'granted'),
			('6f1c2a8e-0d4b-4a57-9d0e-1a2b3c4d5e03', 'PT-1003', 'A. K.', 'a***@example.net', FALSE, NULL, FALSE, 'email', 'pending')
		ON CONFLICT (pseudonym) DO NOTHING
	`); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed patients")
	}

	transcriptRepo := database.NewTranscriptAdapter(pgClient)
	artifactRepo := database.NewArtifactAdapter(pgClient)
	auditRepo := database.NewAuditAdapter(pgClient)
	transcriptService := services.NewTranscriptService(transcriptRepo, artifactRepo, auditRepo, services.NewAuditRecorder(auditRepo))

	seeded := 0
	for _, input := range sampleTranscripts() {
		transcript, created, err := transcriptService.Ingest(ctx, input)
		if err != nil {
			log.Error().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("Failed to seed transcript")
			continue
		}
		if created {
			seeded++
		}
		log.Debug().Str("transcript_id", transcript.ID).Bool("created", created).Msg("seed transcript")
	}

	log.Info().Int("created", seeded).Msg("Seeding completed")
}

func sampleTranscripts() []services.IngestTranscriptInput {
	ref := func(s string) *string { return &s }

	return []services.IngestTranscriptInput{
		{
			PatientPseudonym: "PT-1001",
			Source:           "call",
			SourceRef:        ref("call-2026-001"),
			Text:             "Patient called about knee pain after physio. Asked if the clinic can book a follow-up next week and whether the MRI referral is still valid. Prefers a phone call back in the afternoon.",
			IdempotencyKey:   "seed-call-2026-001",
			Meta:             map[string]interface{}{"channel": "phone", "duration_s": 240},
		},
		{
			PatientPseudonym: "PT-1002",
			Source:           "text",
			SourceRef:        ref("sms-88213"),
			Text:             "Hi, I ran out of my blood pressure tablets two days ago. Can the doctor renew the prescription? I am happy to come in if needed.",
			IdempotencyKey:   "seed-sms-88213",
		},
		{
			PatientPseudonym: "PT-1003",
			Source:           "email",
			Text:             "I received a bill for my last visit that looks higher than quoted. Please explain the charges before I decide whether to keep my appointments here.",
			IdempotencyKey:   "seed-email-4471",
		},
		{
			PatientPseudonym: "PT-1004",
			Source:           "call",
			SourceRef:        ref("call-2026-002"),
			Text:             "Caller dialled the wrong number looking for a pharmacy. No clinical request.",
			IdempotencyKey:   "seed-call-2026-002",
		},
		{
			PatientPseudonym: "PT-1005",
			Source:           "portal",
			Text:             "Thinking about moving to a clinic closer to work. The wait times have been long lately, but I like Dr. Adeyemi. Is there any earlier slot available?",
			IdempotencyKey:   "seed-portal-9902",
			Meta:             map[string]interface{}{"portal_thread": "th-9902"},
		},
	}
}
