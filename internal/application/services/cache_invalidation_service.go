package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
)

// DashboardInvalidator drops cached dashboard metrics
type DashboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheInvalidationService drops cached dashboard metrics whenever a lead event arrives
type CacheInvalidationService struct {
	dashboard DashboardInvalidator
	eventBus  providers.EventBus
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(dashboard DashboardInvalidator, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		dashboard: dashboard,
		eventBus:  eventBus,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start begins listening for lead events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelLeadUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to lead updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("Cache invalidation service stopped")
}

// Done is closed once the event loop has exited
func (s *CacheInvalidationService) Done() <-chan struct{} {
	return s.done
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.LeadEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.LeadEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.dashboard.Invalidate(ctx); err != nil {
		log.Warn().
			Err(err).
			Str("event_id", event.ID).
			Str("lead_id", event.LeadID).
			Msg("failed to invalidate dashboard cache")
		return
	}

	log.Debug().
		Str("event_type", string(event.EventType)).
		Str("lead_id", event.LeadID).
		Msg("dashboard cache invalidated")
}
