package generation

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

const (
	DefaultLeadScore = 0.5
	DefaultDueInDays = 3
	MaxDueInDays     = 30
)

// NormalizeLeadDrafts validates untyped candidates and returns at most one draft,
// built from the first candidate with a non-empty title, reason and next_action.
func NormalizeLeadDrafts(candidates []interface{}) []entities.LeadOpportunityDraft {
	drafts := make([]entities.LeadOpportunityDraft, 0, 1)
	for _, candidate := range candidates {
		fields, ok := candidate.(map[string]interface{})
		if !ok {
			continue
		}
		draft, ok := normalizeCandidate(fields)
		if !ok {
			continue
		}
		drafts = append(drafts, draft)
		break
	}
	return drafts
}

func normalizeCandidate(fields map[string]interface{}) (entities.LeadOpportunityDraft, bool) {
	title := trimmedString(fields["title"])
	reason := trimmedString(fields["reason"])
	nextAction := trimmedString(fields["next_action"])
	if title == "" || reason == "" || nextAction == "" {
		return entities.LeadOpportunityDraft{}, false
	}

	score, ok := finiteNumber(fields["lead_score"])
	if !ok {
		score = DefaultLeadScore
	}

	dueInDays, ok := finiteNumber(fields["due_in_days"])
	if !ok {
		dueInDays = DefaultDueInDays
	}

	return entities.LeadOpportunityDraft{
		Title:           title,
		Reason:          reason,
		NextAction:      nextAction,
		OutreachChannel: NormalizeOutreachChannel(fields["outreach_channel"]),
		LeadScore:       clamp(score, 0, 1),
		DueInDays:       int(clamp(math.Round(dueInDays), 0, MaxDueInDays)),
	}, true
}

// NormalizeOutreachChannel maps any value onto call, email or text. Unrecognized values become text.
func NormalizeOutreachChannel(value interface{}) entities.OutreachChannel {
	s, ok := value.(string)
	if !ok {
		return entities.OutreachChannelText
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "phone":
		return entities.OutreachChannelCall
	case "email":
		return entities.OutreachChannelEmail
	default:
		return entities.OutreachChannelText
	}
}

func trimmedString(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func finiteNumber(value interface{}) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
