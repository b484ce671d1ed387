package providers

import (
	"context"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to lead events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.LeadEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.LeadEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelLeadUpdates carries every lead event
	EventChannelLeadUpdates = "leads:updates"

	// EventChannelTranscriptPrefix is the prefix for per-transcript channels
	EventChannelTranscriptPrefix = "transcript:"
)

// GetTranscriptChannel returns the channel name for a specific transcript
func GetTranscriptChannel(transcriptID string) string {
	return EventChannelTranscriptPrefix + transcriptID
}
