package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// LeadEventType represents the type of lead event
type LeadEventType string

const (
	LeadEventTypeGenerated     LeadEventType = "lead_generated"
	LeadEventTypeStatusChanged LeadEventType = "lead_status_changed"
)

// LeadEvent is a real-time notification about a lead
type LeadEvent struct {
	ID             string        `json:"id"`
	LeadID         string        `json:"lead_id"`
	TranscriptID   string        `json:"transcript_id"`
	EventType      LeadEventType `json:"event_type"`
	Status         LeadStatus    `json:"status"`
	PreviousStatus LeadStatus    `json:"previous_status,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewLeadEvent creates a new lead event
func NewLeadEvent(leadID, transcriptID string, eventType LeadEventType, status, previous LeadStatus) *LeadEvent {
	return &LeadEvent{
		ID:             generateEventID(),
		LeadID:         leadID,
		TranscriptID:   transcriptID,
		EventType:      eventType,
		Status:         status,
		PreviousStatus: previous,
		Timestamp:      time.Now().UTC(),
	}
}

func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
