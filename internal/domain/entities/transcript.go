package entities

import "time"

// TranscriptStatus represents where a transcript sits in the inbox
type TranscriptStatus string

const (
	TranscriptStatusNew       TranscriptStatus = "new"
	TranscriptStatusProcessed TranscriptStatus = "processed"
)

// Transcript is a pseudonymized, redacted conversation record
type Transcript struct {
	ID               string                 `json:"id" db:"id"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	PatientPseudonym string                 `json:"patient_pseudonym" db:"patient_pseudonym"`
	Source           string                 `json:"source" db:"source"`
	SourceRef        *string                `json:"source_ref" db:"source_ref"`
	RedactedText     string                 `json:"redacted_text" db:"redacted_text"`
	IdempotencyKey   string                 `json:"idempotency_key,omitempty" db:"idempotency_key"`
	Status           TranscriptStatus       `json:"status" db:"status"`
	Meta             map[string]interface{} `json:"meta" db:"meta"`
}

// TranscriptListItem is the inbox projection of a transcript
type TranscriptListItem struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	PatientPseudonym string    `json:"patient_pseudonym"`
	Source           string    `json:"source"`
	SourceRef        *string   `json:"source_ref"`
}
