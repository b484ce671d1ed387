package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

var auditRowColumns = []string{
	"id", "created_at", "entity_type", "entity_id", "actor_type",
	"actor_display", "actor_id", "action", "details",
}

func TestAuditAdapter_Create(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewAuditAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_events"`)).WillReturnResult(sqlmock.NewResult(0, 1))

	event := &entities.AuditEvent{
		EntityType:   entities.AuditEntityLead,
		EntityID:     "lead-1",
		ActorType:    entities.ActorTypeUser,
		ActorDisplay: "nurse@example.org",
		ActorID:      "u-1",
		Action:       entities.AuditActionLeadStatusUpdated,
		Details:      map[string]interface{}{"next_status": "contacted"},
	}
	require.NoError(t, adapter.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditAdapter_ListByEntity(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewAuditAdapter(client)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "audit_events"`)).
		WillReturnRows(sqlmock.NewRows(auditRowColumns).
			AddRow("e-2", now, "transcript", "t-1", "user", "nurse", "u-1", "transcript.viewed", []byte(`{"ui":"detail"}`)).
			AddRow("e-1", now.Add(-time.Minute), "transcript", "t-1", "system", "system", "system", "ai.summary_generated", []byte(`{}`)))

	events, err := adapter.ListByEntity(context.Background(), entities.AuditEntityTranscript, "t-1", 50)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.ActorTypeUser, events[0].ActorType)
	assert.Equal(t, "detail", events[0].Details["ui"])
	assert.Equal(t, entities.AuditActionSummaryGenerated, events[1].Action)
}

func TestAuditAdapter_ListRecent_Failure(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewAuditAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "audit_events"`)).WillReturnError(errors.New("timeout"))

	_, err := adapter.ListRecent(context.Background(), 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestAuditAdapter_CountActionsByDay(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := NewAuditAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY "day"`)).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).
			AddRow("2026-10-14", 4).
			AddRow("2026-10-15", 2))

	counts, err := adapter.CountActionsByDay(context.Background(), entities.AuditActionTranscriptViewed, time.Now().AddDate(0, 0, -7))

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2026-10-14": 4, "2026-10-15": 2}, counts)
}
