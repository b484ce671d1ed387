package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// LeadRepository defines the interface for lead opportunity storage
type LeadRepository interface {
	// UpsertByTranscriptID inserts the lead or overwrites the existing row for the
	// same transcript in one atomic statement. Returns the row id.
	UpsertByTranscriptID(ctx context.Context, lead *entities.LeadOpportunity) (string, error)

	// GetByID retrieves a lead by ID
	GetByID(ctx context.Context, id string) (*entities.LeadOpportunity, error)

	// GetByTranscriptID retrieves the lead for a transcript
	GetByTranscriptID(ctx context.Context, transcriptID string) (*entities.LeadOpportunity, error)

	// UpdateStatus applies a status patch
	UpdateStatus(ctx context.Context, id string, patch LeadStatusPatch) error

	// List retrieves leads matching the filter in queue order
	List(ctx context.Context, filter LeadFilter) ([]*entities.LeadOpportunity, error)

	// CountByStatus counts leads per status
	CountByStatus(ctx context.Context) (map[entities.LeadStatus]int, error)
}

// LeadStatusPatch is the column set written by a status transition.
// Notes is always written, nil clears it. DueAt and LastContactedAt are written only when set.
type LeadStatusPatch struct {
	Status          entities.LeadStatus
	Notes           *string
	DueAt           *time.Time
	LastContactedAt *time.Time
	UpdatedAt       time.Time
}

// LeadFilter defines filters for the lead queue.
// TranscriptIDs, when non-empty, restricts the result to those transcripts.
type LeadFilter struct {
	Statuses      []entities.LeadStatus
	DueBefore     *time.Time
	Query         string
	TranscriptID  string
	TranscriptIDs []string
	Limit         int
}
