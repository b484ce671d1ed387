package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	"golang.org/x/sync/errgroup"
)

const (
	// DashboardMetricsCacheKey is the cache entry for the aggregated metrics
	DashboardMetricsCacheKey = "dashboard:metrics"

	defaultDashboardTTL = 30 * time.Second
	activityDays        = 7
	recentActivityLimit = 10
	dayLayout           = "2006-01-02"
)

// DashboardService aggregates inbox, approval and lead counts
type DashboardService struct {
	transcripts repositories.TranscriptRepository
	artifacts   repositories.ArtifactRepository
	leads       repositories.LeadRepository
	auditRepo   repositories.AuditRepository
	cache       providers.CacheProvider
	cacheTTL    time.Duration
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(
	transcripts repositories.TranscriptRepository,
	artifacts repositories.ArtifactRepository,
	leads repositories.LeadRepository,
	auditRepo repositories.AuditRepository,
	cache providers.CacheProvider,
	cacheTTL time.Duration,
) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = defaultDashboardTTL
	}
	return &DashboardService{
		transcripts: transcripts,
		artifacts:   artifacts,
		leads:       leads,
		auditRepo:   auditRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics attaches cache hit/miss counters
func (s *DashboardService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// GetMetrics returns cached metrics when fresh, otherwise recomputes them
func (s *DashboardService) GetMetrics(ctx context.Context) (*entities.DashboardMetrics, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	metrics, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, metrics)
	return metrics, nil
}

// Invalidate drops the cached metrics
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, DashboardMetricsCacheKey)
}

func (s *DashboardService) fromCache(ctx context.Context) (*entities.DashboardMetrics, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, DashboardMetricsCacheKey)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			log.Warn().Err(err).Msg("dashboard cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, DashboardMetricsCacheKey)
		return nil, false
	}

	var metrics entities.DashboardMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		log.Warn().Err(err).Msg("discarding undecodable dashboard cache entry")
		observability.RecordCacheMiss(ctx, s.metrics, DashboardMetricsCacheKey)
		return nil, false
	}

	observability.RecordCacheHit(ctx, s.metrics, DashboardMetricsCacheKey)
	return &metrics, true
}

func (s *DashboardService) store(ctx context.Context, metrics *entities.DashboardMetrics) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, DashboardMetricsCacheKey, data, s.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("dashboard cache write failed")
	}
}

func (s *DashboardService) compute(ctx context.Context) (*entities.DashboardMetrics, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.compute")
	defer span.End()
	start := time.Now()

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(activityDays - 1))

	var (
		inboxNew, processed, approved int
		viewedByDay, processedByDay   map[string]int
		recent                        []*entities.AuditEvent
		leadsByStatus                 map[entities.LeadStatus]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inboxNew, err = s.transcripts.CountByStatus(gctx, entities.TranscriptStatusNew)
		return err
	})
	g.Go(func() (err error) {
		processed, err = s.transcripts.CountByStatus(gctx, entities.TranscriptStatusProcessed)
		return err
	})
	g.Go(func() (err error) {
		approved, err = s.artifacts.CountApprovedSummaries(gctx)
		return err
	})
	g.Go(func() (err error) {
		viewedByDay, err = s.auditRepo.CountActionsByDay(gctx, entities.AuditActionTranscriptViewed, since)
		return err
	})
	g.Go(func() (err error) {
		processedByDay, err = s.auditRepo.CountActionsByDay(gctx, entities.AuditActionTranscriptProcessed, since)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.auditRepo.ListRecent(gctx, recentActivityLimit)
		return err
	})
	g.Go(func() (err error) {
		leadsByStatus, err = s.leads.CountByStatus(gctx)
		return err
	})
	err := g.Wait()
	observability.RecordDBMetric(ctx, s.metrics, "dashboard_aggregate", time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	metrics := &entities.DashboardMetrics{
		InboxNew:          inboxNew,
		Processed:         processed,
		ApprovedSummaries: approved,
		ViewedLast7d:      dailySeries(today, viewedByDay),
		ProcessedLast7d:   dailySeries(today, processedByDay),
		RecentActivity:    make([]entities.ActivityItem, 0, len(recent)),
		LeadsByStatus:     make(map[entities.LeadStatus]int, len(entities.LeadStatuses())),
		GeneratedAt:       now,
	}

	for _, event := range recent {
		metrics.RecentActivity = append(metrics.RecentActivity, entities.ActivityItem{
			CreatedAt:    event.CreatedAt,
			Action:       event.Action,
			ActorDisplay: event.ActorDisplay,
			EntityType:   event.EntityType,
		})
	}

	for _, status := range entities.LeadStatuses() {
		count := leadsByStatus[status]
		metrics.LeadsByStatus[status] = count
		if status.Active() {
			metrics.ActiveLeads += count
		}
	}

	return metrics, nil
}

// dailySeries lists the last seven UTC days, newest first, with zero-filled counts.
func dailySeries(today time.Time, counts map[string]int) []entities.DailyCount {
	series := make([]entities.DailyCount, 0, activityDays)
	for i := 0; i < activityDays; i++ {
		day := today.AddDate(0, 0, -i).Format(dayLayout)
		series = append(series, entities.DailyCount{Day: day, Count: counts[day]})
	}
	return series
}
