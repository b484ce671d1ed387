package repositories

import (
	"context"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// TranscriptRepository defines the interface for transcript data operations
type TranscriptRepository interface {
	// CreateIdempotent inserts a transcript unless its idempotency key already exists.
	// The stored row is returned along with whether it was newly created.
	CreateIdempotent(ctx context.Context, transcript *entities.Transcript) (*entities.Transcript, bool, error)

	// GetByID retrieves a transcript by ID
	GetByID(ctx context.Context, id string) (*entities.Transcript, error)

	// List retrieves transcripts newest first; processed rows only when the filter asks
	List(ctx context.Context, filter TranscriptFilter) ([]*entities.TranscriptListItem, error)

	// MarkProcessed sets the transcript status to processed
	MarkProcessed(ctx context.Context, id string) error

	// ListIDsWithoutLead pages through new transcripts that have no lead row, ordered by id
	ListIDsWithoutLead(ctx context.Context, afterID string, limit int) ([]string, error)

	// CountByStatus counts transcripts in a status
	CountByStatus(ctx context.Context, status entities.TranscriptStatus) (int, error)
}

// TranscriptFilter defines filters for the transcript inbox.
// IncludeProcessed widens the listing past the inbox for patient history.
type TranscriptFilter struct {
	Source           string
	PatientPseudonym string
	IncludeProcessed bool
	Limit            int
	Offset           int
}
