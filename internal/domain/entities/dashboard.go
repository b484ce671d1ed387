package entities

import "time"

// DailyCount is one UTC day bucket
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// ActivityItem is a compact audit row for the dashboard feed
type ActivityItem struct {
	CreatedAt    time.Time `json:"created_at"`
	Action       string    `json:"action"`
	ActorDisplay string    `json:"actor_display"`
	EntityType   string    `json:"entity_type"`
}

// DashboardMetrics aggregates inbox, approval, activity and lead counts
type DashboardMetrics struct {
	InboxNew          int                `json:"inbox_new"`
	Processed         int                `json:"processed"`
	ApprovedSummaries int                `json:"approved_summaries"`
	ViewedLast7d      []DailyCount       `json:"viewed_last_7d"`
	ProcessedLast7d   []DailyCount       `json:"processed_last_7d"`
	RecentActivity    []ActivityItem     `json:"recent_activity"`
	LeadsByStatus     map[LeadStatus]int `json:"leads_by_status"`
	ActiveLeads       int                `json:"active_leads"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
