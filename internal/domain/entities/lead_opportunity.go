package entities

import (
	"sort"
	"time"
)

// LeadStatus represents the follow-up state of a lead opportunity
type LeadStatus string

const (
	LeadStatusOpen       LeadStatus = "open"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusQualified  LeadStatus = "qualified"
	LeadStatusClosedWon  LeadStatus = "closed_won"
	LeadStatusClosedLost LeadStatus = "closed_lost"
	LeadStatusDismissed  LeadStatus = "dismissed"
	LeadStatusSuperseded LeadStatus = "superseded"
)

// leadStatusRank orders statuses for queue display.
var leadStatusRank = map[LeadStatus]int{
	LeadStatusOpen:       0,
	LeadStatusInProgress: 1,
	LeadStatusContacted:  2,
	LeadStatusQualified:  3,
	LeadStatusClosedWon:  4,
	LeadStatusClosedLost: 5,
	LeadStatusDismissed:  6,
	LeadStatusSuperseded: 7,
}

// LeadStatuses returns all recognized statuses in rank order.
func LeadStatuses() []LeadStatus {
	return []LeadStatus{
		LeadStatusOpen,
		LeadStatusInProgress,
		LeadStatusContacted,
		LeadStatusQualified,
		LeadStatusClosedWon,
		LeadStatusClosedLost,
		LeadStatusDismissed,
		LeadStatusSuperseded,
	}
}

// ParseLeadStatus returns the status when value is one of the eight recognized values.
func ParseLeadStatus(value string) (LeadStatus, bool) {
	status := LeadStatus(value)
	_, ok := leadStatusRank[status]
	return status, ok
}

// Valid reports whether s is a recognized status
func (s LeadStatus) Valid() bool {
	_, ok := leadStatusRank[s]
	return ok
}

// Active reports whether the lead still needs staff attention
func (s LeadStatus) Active() bool {
	switch s {
	case LeadStatusOpen, LeadStatusInProgress, LeadStatusContacted, LeadStatusQualified:
		return true
	}
	return false
}

// Rank is the queue position of the status; unknown statuses sort last.
func (s LeadStatus) Rank() int {
	if rank, ok := leadStatusRank[s]; ok {
		return rank
	}
	return len(leadStatusRank)
}

// OutreachChannel is how staff should reach out
type OutreachChannel string

const (
	OutreachChannelCall  OutreachChannel = "call"
	OutreachChannelText  OutreachChannel = "text"
	OutreachChannelEmail OutreachChannel = "email"
)

// LeadOrigin tags which pipeline produced a lead
type LeadOrigin string

const (
	LeadOriginSummaryPipeline LeadOrigin = "summary_pipeline"
	LeadOriginManual          LeadOrigin = "manual"
	LeadOriginBackfill        LeadOrigin = "backfill"
)

// LeadOpportunityDraft is a normalized, not-yet-persisted lead candidate
type LeadOpportunityDraft struct {
	Title           string          `json:"title"`
	Reason          string          `json:"reason"`
	NextAction      string          `json:"next_action"`
	OutreachChannel OutreachChannel `json:"outreach_channel"`
	LeadScore       float64         `json:"lead_score"`
	DueInDays       int             `json:"due_in_days"`
}

// LeadOpportunity is a staff-actionable retention follow-up, one per transcript
type LeadOpportunity struct {
	ID               string                 `json:"id" db:"id"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
	TranscriptID     string                 `json:"transcript_id" db:"transcript_id"`
	SourceArtifactID *string                `json:"source_artifact_id" db:"source_artifact_id"`
	Model            string                 `json:"model" db:"model"`
	Title            string                 `json:"title" db:"title"`
	Reason           string                 `json:"reason" db:"reason"`
	NextAction       string                 `json:"next_action" db:"next_action"`
	LeadScore        float64                `json:"lead_score" db:"lead_score"`
	Status           LeadStatus             `json:"status" db:"status"`
	Owner            *string                `json:"owner" db:"owner"`
	DueAt            *time.Time             `json:"due_at" db:"due_at"`
	LastContactedAt  *time.Time             `json:"last_contacted_at" db:"last_contacted_at"`
	Notes            *string                `json:"notes" db:"notes"`
	Metadata         map[string]interface{} `json:"metadata" db:"metadata"`
}

// Overdue reports whether an active lead is past its due time
func (l *LeadOpportunity) Overdue(now time.Time) bool {
	return l.Status.Active() && l.DueAt != nil && l.DueAt.Before(now)
}

// LeadStatusChange is a requested lifecycle transition
type LeadStatusChange struct {
	Status string
	Notes  *string
	DueAt  *time.Time
}

// SortLeadQueue orders leads by status rank, then score descending, then newest first.
func SortLeadQueue(leads []*LeadOpportunity) {
	sort.SliceStable(leads, func(i, j int) bool {
		a, b := leads[i], leads[j]
		if ra, rb := a.Status.Rank(), b.Status.Rank(); ra != rb {
			return ra < rb
		}
		if a.LeadScore != b.LeadScore {
			return a.LeadScore > b.LeadScore
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
