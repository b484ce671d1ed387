package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadCandidates(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantLen      int
		wantStrategy string
	}{
		{name: "direct array", raw: `[{"title":"a"}]`, wantLen: 1, wantStrategy: StrategyDirectArray},
		{name: "fenced array", raw: "```json\n[{\"title\":\"a\"},{\"title\":\"b\"}]\n```", wantLen: 2, wantStrategy: StrategyDirectArray},
		{name: "prose around array", raw: "Leads:\n[{\"title\":\"a\"}]\nThanks", wantLen: 1, wantStrategy: StrategyBracketedArray},
		{name: "empty array", raw: "[]", wantLen: 0, wantStrategy: StrategyDirectArray},
		{name: "object is not an array", raw: `{"leads":[{"title":"a"}]}`, wantLen: 0, wantStrategy: StrategyDirectArray},
		{name: "no brackets", raw: "I could not find any leads.", wantLen: 0, wantStrategy: StrategyNoCandidates},
		{name: "broken inside brackets", raw: "[{\"title\": }]", wantLen: 0, wantStrategy: StrategyNoCandidates},
		{name: "reversed brackets", raw: "] nothing [", wantLen: 0, wantStrategy: StrategyNoCandidates},
		{name: "empty", raw: "", wantLen: 0, wantStrategy: StrategyNoCandidates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLeadCandidates(tt.raw)
			assert.NotNil(t, got.Items)
			assert.Len(t, got.Items, tt.wantLen)
			assert.Equal(t, tt.wantStrategy, got.Strategy)
		})
	}
}

func TestParseLeadCandidates_OverflowingNumberSurvives(t *testing.T) {
	got := ParseLeadCandidates(`[{"title":"t","reason":"r","next_action":"n","lead_score":1e400}]`)
	assert.Len(t, got.Items, 1)

	drafts := NormalizeLeadDrafts(got.Items)
	assert.Len(t, drafts, 1)
	assert.Equal(t, DefaultLeadScore, drafts[0].LeadScore)
}
