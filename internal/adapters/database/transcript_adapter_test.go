package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

func TestTranscriptAdapter_CreateIdempotent_New(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewTranscriptAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "transcripts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t-1"))

	transcript := &entities.Transcript{
		ID:               "t-1",
		PatientPseudonym: "patient-42",
		Source:           "call",
		RedactedText:     "Patient missed a follow-up visit for knee pain",
		IdempotencyKey:   "key-1",
	}
	stored, created, err := adapter.CreateIdempotent(context.Background(), transcript)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "t-1", stored.ID)
	assert.Equal(t, entities.TranscriptStatusNew, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptAdapter_CreateIdempotent_Duplicate(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewTranscriptAdapter(client)
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "transcripts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "transcripts" WHERE ("idempotency_key" = 'key-1')`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "patient_pseudonym", "source", "source_ref",
			"redacted_text", "idempotency_key", "status", "meta",
		}).AddRow("existing", createdAt, "patient-42", "call", nil, "text", "key-1", "new", []byte(`{"lang":"en"}`)))

	stored, created, err := adapter.CreateIdempotent(context.Background(), &entities.Transcript{IdempotencyKey: "key-1"})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing", stored.ID)
	assert.Nil(t, stored.SourceRef)
	assert.Equal(t, "en", stored.Meta["lang"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewTranscriptAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "transcripts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := adapter.GetByID(context.Background(), "missing")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTranscriptAdapter_List_ExcludesProcessed(t *testing.T) {
	matcher := &capturingMatcher{}
	client, mock := newMockClient(t, matcher)
	adapter := NewTranscriptAdapter(client)

	mock.ExpectQuery("list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "patient_pseudonym", "source", "source_ref"}).
			AddRow("t-2", time.Now(), "p", "sms", "ref-9"))

	items, err := adapter.List(context.Background(), repositories.TranscriptFilter{Source: "sms", Limit: 21, Offset: 20})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ref-9", *items[0].SourceRef)
	require.Len(t, matcher.queries, 1)
	assert.Contains(t, matcher.queries[0], `"status" != 'processed'`)
	assert.Contains(t, matcher.queries[0], `"source" = 'sms'`)
	assert.Contains(t, matcher.queries[0], "LIMIT 21 OFFSET 20")
}

func TestTranscriptAdapter_List_IncludeProcessed(t *testing.T) {
	matcher := &capturingMatcher{}
	client, mock := newMockClient(t, matcher)
	adapter := NewTranscriptAdapter(client)

	mock.ExpectQuery("list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "patient_pseudonym", "source", "source_ref"}))

	_, err := adapter.List(context.Background(), repositories.TranscriptFilter{
		PatientPseudonym: "PT-1001",
		IncludeProcessed: true,
		Limit:            20,
	})

	require.NoError(t, err)
	assert.NotContains(t, matcher.queries[0], `"status"`)
	assert.Contains(t, matcher.queries[0], `"patient_pseudonym" = 'PT-1001'`)
	assert.Contains(t, matcher.queries[0], `ORDER BY "created_at" DESC`)
}

func TestTranscriptAdapter_MarkProcessed_NotFound(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewTranscriptAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "transcripts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.MarkProcessed(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTranscriptAdapter_ListIDsWithoutLead(t *testing.T) {
	matcher := &capturingMatcher{}
	client, mock := newMockClient(t, matcher)
	adapter := NewTranscriptAdapter(client)

	mock.ExpectQuery("backfill").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b").AddRow("c"))

	ids, err := adapter.ListIDsWithoutLead(context.Background(), "a", 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids)
	assert.Contains(t, matcher.queries[0], "LEFT JOIN")
	assert.Contains(t, matcher.queries[0], `"l"."id" IS NULL`)
	assert.Contains(t, matcher.queries[0], `"t"."id" > 'a'`)
}
