package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
)

// Mocks

type MockTranscriptRepo struct {
	mock.Mock
}

func (m *MockTranscriptRepo) CreateIdempotent(ctx context.Context, transcript *entities.Transcript) (*entities.Transcript, bool, error) {
	args := m.Called(ctx, transcript)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entities.Transcript), args.Bool(1), args.Error(2)
}

func (m *MockTranscriptRepo) GetByID(ctx context.Context, id string) (*entities.Transcript, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transcript), args.Error(1)
}

func (m *MockTranscriptRepo) List(ctx context.Context, filter repositories.TranscriptFilter) ([]*entities.TranscriptListItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TranscriptListItem), args.Error(1)
}

func (m *MockTranscriptRepo) MarkProcessed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTranscriptRepo) ListIDsWithoutLead(ctx context.Context, afterID string, limit int) ([]string, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTranscriptRepo) CountByStatus(ctx context.Context, status entities.TranscriptStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) Create(ctx context.Context, artifact *entities.Artifact) error {
	args := m.Called(ctx, artifact)
	if args.Error(0) == nil && artifact.ID == "" {
		artifact.ID = "artifact-1"
	}
	return args.Error(0)
}

func (m *MockArtifactRepo) GetForTranscript(ctx context.Context, transcriptID, artifactID string) (*entities.Artifact, error) {
	args := m.Called(ctx, transcriptID, artifactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) Approve(ctx context.Context, artifactID, approvedBy string, approvedAt time.Time) error {
	args := m.Called(ctx, artifactID, approvedBy, approvedAt)
	return args.Error(0)
}

func (m *MockArtifactRepo) ListByTranscript(ctx context.Context, transcriptID string) ([]*entities.Artifact, error) {
	args := m.Called(ctx, transcriptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) CountApprovedSummaries(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockLeadRepo struct {
	mock.Mock
}

func (m *MockLeadRepo) UpsertByTranscriptID(ctx context.Context, lead *entities.LeadOpportunity) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockLeadRepo) GetByID(ctx context.Context, id string) (*entities.LeadOpportunity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LeadOpportunity), args.Error(1)
}

func (m *MockLeadRepo) GetByTranscriptID(ctx context.Context, transcriptID string) (*entities.LeadOpportunity, error) {
	args := m.Called(ctx, transcriptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LeadOpportunity), args.Error(1)
}

func (m *MockLeadRepo) UpdateStatus(ctx context.Context, id string, patch repositories.LeadStatusPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockLeadRepo) List(ctx context.Context, filter repositories.LeadFilter) ([]*entities.LeadOpportunity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LeadOpportunity), args.Error(1)
}

func (m *MockLeadRepo) CountByStatus(ctx context.Context) (map[entities.LeadStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entities.LeadStatus]int), args.Error(1)
}

type MockPatientRepo struct {
	mock.Mock
}

func (m *MockPatientRepo) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Patient), args.Error(1)
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, event *entities.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entities.AuditEvent, error) {
	args := m.Called(ctx, entityType, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AuditEvent), args.Error(1)
}

func (m *MockAuditRepo) ListRecent(ctx context.Context, limit int) ([]*entities.AuditEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AuditEvent), args.Error(1)
}

func (m *MockAuditRepo) CountActionsByDay(ctx context.Context, action string, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, action, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	args := m.Called(ctx, model, prompt)
	return args.String(0), args.Error(1)
}

// memoryCache is an in-process CacheProvider
type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.data[key]; ok {
		return val, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
		c.deleted = append(c.deleted, key)
	}
	return nil
}

func (c *memoryCache) deletedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deleted)
}

// memoryEventBus is an in-process EventBus
type memoryEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.LeadEvent
	published   map[string][]*entities.LeadEvent
}

func newMemoryEventBus() *memoryEventBus {
	return &memoryEventBus{
		subscribers: make(map[string][]chan *entities.LeadEvent),
		published:   make(map[string][]*entities.LeadEvent),
	}
}

func (b *memoryEventBus) Publish(ctx context.Context, channel string, event *entities.LeadEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], event)
	for _, ch := range b.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *memoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LeadEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.LeadEvent, 10)
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	return ch, nil
}

func (b *memoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers[channel] {
		close(ch)
	}
	delete(b.subscribers, channel)
	return nil
}

func (b *memoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for channel, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
		delete(b.subscribers, channel)
	}
	return nil
}

func (b *memoryEventBus) publishedOn(channel string) []*entities.LeadEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.LeadEvent(nil), b.published[channel]...)
}

func (b *memoryEventBus) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[channel])
}

var (
	_ providers.CacheProvider = (*memoryCache)(nil)
	_ providers.EventBus      = (*memoryEventBus)(nil)
)
