package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// CacheWarmingService fills the dashboard cache so the first request after start-up is served from Redis
type CacheWarmingService struct {
	dashboard *DashboardService
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(dashboard *DashboardService) *CacheWarmingService {
	return &CacheWarmingService{dashboard: dashboard}
}

// WarmCache recomputes and stores the dashboard metrics
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Info().Msg("Starting cache warming...")

	if err := s.dashboard.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to drop stale dashboard metrics")
	}
	if _, err := s.dashboard.GetMetrics(ctx); err != nil {
		return fmt.Errorf("failed to warm dashboard metrics: %w", err)
	}

	log.Info().Msg("Cache warming completed")
	return nil
}
