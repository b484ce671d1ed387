package entities

import "time"

// ArtifactType identifies the kind of model output
type ArtifactType string

const (
	ArtifactTypeSummary ArtifactType = "summary"
)

// ArtifactStatus represents the review state of an artifact
type ArtifactStatus string

const (
	ArtifactStatusGenerated ArtifactStatus = "generated"
	ArtifactStatusApproved  ArtifactStatus = "approved"
)

// Artifact is the persisted output of one model invocation.
// Only the approval action mutates it after creation.
type Artifact struct {
	ID           string                 `json:"id" db:"id"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	TranscriptID string                 `json:"transcript_id" db:"transcript_id"`
	ArtifactType ArtifactType           `json:"artifact_type" db:"artifact_type"`
	Model        string                 `json:"model" db:"model"`
	Status       ArtifactStatus         `json:"status" db:"status"`
	Content      string                 `json:"content" db:"content"`
	Meta         map[string]interface{} `json:"meta" db:"meta"`
	ApprovedAt   *time.Time             `json:"approved_at" db:"approved_at"`
	ApprovedBy   *string                `json:"approved_by" db:"approved_by"`
}
