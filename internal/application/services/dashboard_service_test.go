package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

type dashboardFixture struct {
	transcripts *MockTranscriptRepo
	artifacts   *MockArtifactRepo
	leads       *MockLeadRepo
	audit       *MockAuditRepo
	cache       *memoryCache
	service     *DashboardService
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		transcripts: new(MockTranscriptRepo),
		artifacts:   new(MockArtifactRepo),
		leads:       new(MockLeadRepo),
		audit:       new(MockAuditRepo),
		cache:       newMemoryCache(),
	}
	f.service = NewDashboardService(f.transcripts, f.artifacts, f.leads, f.audit, f.cache, 0)
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func (f *dashboardFixture) expectQueries() {
	since := time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC)
	f.transcripts.On("CountByStatus", mock.Anything, entities.TranscriptStatusNew).Return(4, nil)
	f.transcripts.On("CountByStatus", mock.Anything, entities.TranscriptStatusProcessed).Return(9, nil)
	f.artifacts.On("CountApprovedSummaries", mock.Anything).Return(7, nil)
	f.audit.On("CountActionsByDay", mock.Anything, entities.AuditActionTranscriptViewed, since).
		Return(map[string]int{"2026-10-15": 3, "2026-10-09": 1, "2026-10-01": 8}, nil)
	f.audit.On("CountActionsByDay", mock.Anything, entities.AuditActionTranscriptProcessed, since).
		Return(map[string]int{"2026-10-14": 2}, nil)
	f.audit.On("ListRecent", mock.Anything, recentActivityLimit).Return([]*entities.AuditEvent{
		{CreatedAt: fixedNow, Action: entities.AuditActionTranscriptViewed, ActorDisplay: "nurse", EntityType: "transcript"},
	}, nil)
	f.leads.On("CountByStatus", mock.Anything).Return(map[entities.LeadStatus]int{
		entities.LeadStatusOpen:      2,
		entities.LeadStatusContacted: 1,
		entities.LeadStatusDismissed: 5,
	}, nil)
}

func TestGetMetrics_Aggregates(t *testing.T) {
	f := newDashboardFixture()
	f.expectQueries()

	metrics, err := f.service.GetMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, metrics.InboxNew)
	assert.Equal(t, 9, metrics.Processed)
	assert.Equal(t, 7, metrics.ApprovedSummaries)

	require.Len(t, metrics.ViewedLast7d, 7)
	assert.Equal(t, entities.DailyCount{Day: "2026-10-15", Count: 3}, metrics.ViewedLast7d[0])
	assert.Equal(t, entities.DailyCount{Day: "2026-10-09", Count: 1}, metrics.ViewedLast7d[6])
	assert.Equal(t, entities.DailyCount{Day: "2026-10-14", Count: 2}, metrics.ProcessedLast7d[1])
	assert.Equal(t, 0, metrics.ProcessedLast7d[0].Count)

	require.Len(t, metrics.RecentActivity, 1)
	assert.Equal(t, "nurse", metrics.RecentActivity[0].ActorDisplay)

	assert.Len(t, metrics.LeadsByStatus, 8)
	assert.Equal(t, 0, metrics.LeadsByStatus[entities.LeadStatusSuperseded])
	assert.Equal(t, 3, metrics.ActiveLeads)
}

func TestGetMetrics_ServesFromCache(t *testing.T) {
	f := newDashboardFixture()
	f.expectQueries()

	first, err := f.service.GetMetrics(context.Background())
	require.NoError(t, err)
	second, err := f.service.GetMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.InboxNew, second.InboxNew)
	assert.Equal(t, first.ViewedLast7d, second.ViewedLast7d)
	f.artifacts.AssertNumberOfCalls(t, "CountApprovedSummaries", 1)

	require.NoError(t, f.service.Invalidate(context.Background()))
	_, err = f.service.GetMetrics(context.Background())
	require.NoError(t, err)
	f.artifacts.AssertNumberOfCalls(t, "CountApprovedSummaries", 2)
}

func TestGetMetrics_StoreFailure(t *testing.T) {
	f := newDashboardFixture()
	f.transcripts.On("CountByStatus", mock.Anything, mock.Anything).Return(0, nil)
	f.artifacts.On("CountApprovedSummaries", mock.Anything).
		Return(0, apperrors.NewInternalError("failed to count artifacts", errors.New("connection reset")))
	f.audit.On("CountActionsByDay", mock.Anything, mock.Anything, mock.Anything).Return(map[string]int{}, nil)
	f.audit.On("ListRecent", mock.Anything, mock.Anything).Return([]*entities.AuditEvent{}, nil)
	f.leads.On("CountByStatus", mock.Anything).Return(map[entities.LeadStatus]int{}, nil)

	_, err := f.service.GetMetrics(context.Background())

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	_, cacheErr := f.cache.Get(context.Background(), DashboardMetricsCacheKey)
	assert.Error(t, cacheErr)
}

func TestCacheWarmingService_WarmCache(t *testing.T) {
	f := newDashboardFixture()
	f.expectQueries()
	require.NoError(t, f.cache.Set(context.Background(), DashboardMetricsCacheKey, []byte(`{"inbox_new":99}`), time.Minute))

	require.NoError(t, NewCacheWarmingService(f.service).WarmCache(context.Background()))

	metrics, err := f.service.GetMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.InboxNew)
}
