package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// ArtifactRepository defines the interface for generated artifact storage
type ArtifactRepository interface {
	// Create inserts a new artifact
	Create(ctx context.Context, artifact *entities.Artifact) error

	// GetForTranscript retrieves an artifact that belongs to the given transcript
	GetForTranscript(ctx context.Context, transcriptID, artifactID string) (*entities.Artifact, error)

	// Approve marks an artifact approved
	Approve(ctx context.Context, artifactID, approvedBy string, approvedAt time.Time) error

	// ListByTranscript lists a transcript's artifacts, newest first
	ListByTranscript(ctx context.Context, transcriptID string) ([]*entities.Artifact, error)

	// CountApprovedSummaries counts approved summary artifacts
	CountApprovedSummaries(ctx context.Context) (int, error)
}
