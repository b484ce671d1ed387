//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/database"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

func TestTranscriptAdapter_CreateIdempotentIntegration(t *testing.T) {
	client := newTestPostgresClient(t)
	defer client.Close()
	prepareSchema(t, client.DB())

	repo := database.NewTranscriptAdapter(client)
	ctx := context.Background()

	first, created, err := repo.CreateIdempotent(ctx, &entities.Transcript{
		PatientPseudonym: "PT-INT-1",
		Source:           "call",
		RedactedText:     "Asked about a follow-up visit.",
		IdempotencyKey:   "int-key-1",
	})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIdempotent(ctx, &entities.Transcript{
		PatientPseudonym: "PT-INT-1",
		Source:           "call",
		RedactedText:     "Different text, same key.",
		IdempotencyKey:   "int-key-1",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Asked about a follow-up visit.", second.RedactedText)

	ids, err := repo.ListIDsWithoutLead(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids)
}

func TestLeadAdapter_UpsertByTranscriptIDIntegration(t *testing.T) {
	client := newTestPostgresClient(t)
	defer client.Close()
	prepareSchema(t, client.DB())

	ctx := context.Background()
	transcripts := database.NewTranscriptAdapter(client)
	leads := database.NewLeadAdapter(client)

	transcript, _, err := transcripts.CreateIdempotent(ctx, &entities.Transcript{
		PatientPseudonym: "PT-INT-2",
		Source:           "text",
		RedactedText:     "Needs a refill.",
		IdempotencyKey:   "int-key-2",
	})
	require.NoError(t, err)

	firstID, err := leads.UpsertByTranscriptID(ctx, &entities.LeadOpportunity{
		TranscriptID: transcript.ID,
		Model:        "qwen2.5:1.5b",
		Title:        "Refill follow-up",
		Reason:       "Patient ran out of medication",
		NextAction:   "Call to confirm refill",
		LeadScore:    0.7,
	})
	require.NoError(t, err)

	secondID, err := leads.UpsertByTranscriptID(ctx, &entities.LeadOpportunity{
		TranscriptID: transcript.ID,
		Model:        "llama3.2:1b",
		Title:        "Refill follow-up (regenerated)",
		Reason:       "Patient ran out of medication",
		NextAction:   "Text a refill link",
		LeadScore:    0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	lead, err := leads.GetByTranscriptID(ctx, transcript.ID)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:1b", lead.Model)
	assert.Equal(t, entities.LeadStatusOpen, lead.Status)

	contacted := time.Now().UTC().Truncate(time.Second)
	notes := "left voicemail"
	require.NoError(t, leads.UpdateStatus(ctx, lead.ID, repositories.LeadStatusPatch{
		Status:          entities.LeadStatusContacted,
		Notes:           &notes,
		LastContactedAt: &contacted,
		UpdatedAt:       contacted,
	}))

	queue, err := leads.List(ctx, repositories.LeadFilter{Query: "REFILL", Limit: 10})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, entities.LeadStatusContacted, queue[0].Status)
	require.NotNil(t, queue[0].Notes)
	assert.Equal(t, notes, *queue[0].Notes)

	counts, err := leads.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[entities.LeadStatusContacted])
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5432"))
	require.NoError(t, err)

	client, err := postgres.NewClient(&config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "transcript_triage_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	})
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func prepareSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	migrationSQL, err := os.ReadFile("../../../migrations/001_transcript_triage.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(migrationSQL))
	require.NoError(t, err)

	_, err = db.Exec("TRUNCATE TABLE audit_events, lead_opportunities, transcript_artifacts, transcripts, patients CASCADE")
	require.NoError(t, err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
