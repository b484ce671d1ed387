package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/transcript-triage/backend/internal/infrastructure/clients/redis"
)

const (
	leadUpdatesBuffer = 100
	// A transcript stream backs a single review screen and sees at most a
	// handful of events per generation.
	transcriptBuffer = 16
)

var (
	// ErrInvalidLeadEvent is returned for events missing a lead, transcript or known type
	ErrInvalidLeadEvent = errors.New("invalid lead event")
	// ErrTranscriptMismatch is returned when an event is sent to another transcript's channel
	ErrTranscriptMismatch = errors.New("lead event does not belong to transcript channel")
)

// RedisEventBus fans lead events out over Redis Pub/Sub. The global lead
// channel stays subscribed for the bus lifetime; a transcript channel is
// dropped as soon as its last viewer leaves.
type RedisEventBus struct {
	client        *redisclient.Client
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan *entities.LeadEvent]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based lead event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return newRedisEventBus(client)
}

func newRedisEventBus(client *redisclient.Client) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan *entities.LeadEvent]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// transcriptOf returns the transcript id a channel is scoped to, if any
func transcriptOf(channel string) (string, bool) {
	if !strings.HasPrefix(channel, providers.EventChannelTranscriptPrefix) {
		return "", false
	}
	return strings.TrimPrefix(channel, providers.EventChannelTranscriptPrefix), true
}

func validateLeadEvent(channel string, event *entities.LeadEvent) error {
	if event == nil || event.LeadID == "" || event.TranscriptID == "" {
		return ErrInvalidLeadEvent
	}
	switch event.EventType {
	case entities.LeadEventTypeGenerated, entities.LeadEventTypeStatusChanged:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidLeadEvent, event.EventType)
	}
	if transcriptID, scoped := transcriptOf(channel); scoped && transcriptID != event.TranscriptID {
		return fmt.Errorf("%w: %s on %s", ErrTranscriptMismatch, event.TranscriptID, channel)
	}
	return nil
}

func encodeLeadEvent(channel string, event *entities.LeadEvent) ([]byte, error) {
	if err := validateLeadEvent(channel, event); err != nil {
		return nil, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

func decodeLeadEvent(channel, payload string) (*entities.LeadEvent, error) {
	var event entities.LeadEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := validateLeadEvent(channel, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func subscriberBuffer(channel string) int {
	if _, scoped := transcriptOf(channel); scoped {
		return transcriptBuffer
	}
	return leadUpdatesBuffer
}

// Publish validates and publishes a lead event
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.LeadEvent) error {
	data, err := encodeLeadEvent(channel, event)
	if err != nil {
		return err
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("lead_id", event.LeadID).
		Str("event_type", string(event.EventType)).
		Msg("Published lead event")
	return nil
}

// Subscribe subscribes to lead events on a channel until ctx is done
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.LeadEvent, error) {
	b.mu.Lock()
	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub)
	}
	eventChan := b.addSubscriberLocked(channel)
	subscriberCount := len(b.subscribers[channel])
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", subscriberCount).Msg("Subscribed to channel")

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

func (b *RedisEventBus) addSubscriberLocked(channel string) chan *entities.LeadEvent {
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.LeadEvent]struct{})
	}
	eventChan := make(chan *entities.LeadEvent, subscriberBuffer(channel))
	b.subscribers[channel][eventChan] = struct{}{}
	return eventChan
}

// receiveMessages decodes Redis messages and hands them to deliver
func (b *RedisEventBus) receiveMessages(channel string, pubsub *redis.PubSub) {
	defer func() {
		if err := b.cleanupChannel(channel); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("Failed to cleanup channel")
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			event, err := decodeLeadEvent(channel, msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Dropping lead event")
				continue
			}
			b.deliver(channel, event)
		}
	}
}

// deliver hands the event to every local subscriber without blocking and
// returns how many received it
func (b *RedisEventBus) deliver(channel string, event *entities.LeadEvent) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
			delivered++
		default:
			log.Warn().
				Str("channel", channel).
				Str("event_id", event.ID).
				Str("lead_id", event.LeadID).
				Msg("Subscriber channel full, skipping lead event")
		}
	}
	return delivered
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.LeadEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) > 0 {
		return
	}
	if _, scoped := transcriptOf(channel); !scoped {
		return
	}

	delete(b.subscribers, channel)
	if pubsub, ok := b.subscriptions[channel]; ok {
		_ = pubsub.Close()
		delete(b.subscriptions, channel)
		log.Info().Str("channel", channel).Msg("Closed idle transcript subscription")
	}
}

func (b *RedisEventBus) cleanupChannel(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, exists := b.subscribers[channel]; exists {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}

	if pubsub, ok := b.subscriptions[channel]; ok {
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close subscription %s: %w", channel, err)
		}
		delete(b.subscriptions, channel)
	}

	return nil
}

// Unsubscribe closes every local subscriber of a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return b.cleanupChannel(channel)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	channels := make([]string, 0, len(b.subscribers))
	for channel := range b.subscribers {
		channels = append(channels, channel)
	}
	for channel := range b.subscriptions {
		if _, listed := b.subscribers[channel]; !listed {
			channels = append(channels, channel)
		}
	}
	b.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := b.cleanupChannel(channel); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing event bus: %w", errors.Join(errs...))
	}

	log.Info().Msg("Event bus closed")
	return nil
}
