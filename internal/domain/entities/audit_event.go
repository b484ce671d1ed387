package entities

import "time"

// Audit entity types
const (
	AuditEntityTranscript = "transcript"
	AuditEntityLead       = "lead"
	AuditEntityPatient    = "patient"
)

// Audit actions
const (
	AuditActionSummaryGenerated    = "ai.summary_generated"
	AuditActionLeadsGenerated      = "ai.leads_generated"
	AuditActionLeadStatusUpdated   = "lead.status_updated"
	AuditActionTranscriptViewed    = "transcript.viewed"
	AuditActionTranscriptProcessed = "transcript.processed"
	AuditActionPatientViewed       = "patient.viewed"
)

// ActorType distinguishes staff from automated callers
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// Actor identifies who triggered an action
type Actor struct {
	Type    ActorType `json:"actor_type"`
	ID      string    `json:"actor_id"`
	Display string    `json:"actor_display"`
}

// SystemActor is used when no caller identity is available.
func SystemActor(display string) Actor {
	if display == "" {
		display = "system"
	}
	return Actor{Type: ActorTypeSystem, ID: "system", Display: display}
}

// AuditEvent records one action taken on an entity
type AuditEvent struct {
	ID           string                 `json:"id" db:"id"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	EntityType   string                 `json:"entity_type" db:"entity_type"`
	EntityID     string                 `json:"entity_id" db:"entity_id"`
	ActorType    ActorType              `json:"actor_type" db:"actor_type"`
	ActorDisplay string                 `json:"actor_display" db:"actor_display"`
	ActorID      string                 `json:"actor_id" db:"actor_id"`
	Action       string                 `json:"action" db:"action"`
	Details      map[string]interface{} `json:"details" db:"details"`
}
