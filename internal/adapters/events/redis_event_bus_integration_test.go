//go:build integration

package events_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/adapters/events"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelLeadUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewLeadEvent("lead-redis-1", "tr-redis-1", entities.LeadEventTypeGenerated, entities.LeadStatusOpen, "")
	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	received1 := waitForLeadEvent(t, sub1)
	received2 := waitForLeadEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.LeadStatusOpen, received1.Status)
}

func TestRedisEventBusTranscriptChannelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := eventBus.Subscribe(ctx, providers.GetTranscriptChannel("tr-redis-2"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewLeadEvent("lead-redis-2", "tr-redis-2", entities.LeadEventTypeStatusChanged, entities.LeadStatusContacted, entities.LeadStatusOpen)
	require.NoError(t, eventBus.Publish(ctx, providers.GetTranscriptChannel("tr-redis-2"), event))

	received := waitForLeadEvent(t, sub)
	assert.Equal(t, entities.LeadStatusOpen, received.PreviousStatus)
	assert.Equal(t, "lead-redis-2", received.LeadID)
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	port, err := strconv.Atoi(getEnv("TEST_REDIS_PORT", "6379"))
	require.NoError(t, err)

	client, err := redis.NewClient(&config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
	})
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func waitForLeadEvent(t *testing.T, ch <-chan *entities.LeadEvent) *entities.LeadEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for lead event")
		return nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
