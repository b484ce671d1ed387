package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
)

const publishTimeout = 2 * time.Second

// publishLeadEvent fans an event out to the global lead channel and the
// transcript's own channel. Failures are logged only.
func publishLeadEvent(ctx context.Context, bus providers.EventBus, event *entities.LeadEvent) {
	if bus == nil || event == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	channels := []string{providers.EventChannelLeadUpdates}
	if event.TranscriptID != "" {
		channels = append(channels, providers.GetTranscriptChannel(event.TranscriptID))
	}

	for _, channel := range channels {
		if err := bus.Publish(ctx, channel, event); err != nil {
			log.Warn().
				Err(err).
				Str("channel", channel).
				Str("lead_id", event.LeadID).
				Str("event_type", string(event.EventType)).
				Msg("failed to publish lead event")
		}
	}
}
