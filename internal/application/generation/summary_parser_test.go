package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantText     string
		wantStrategy string
	}{
		{
			name:         "fenced json",
			raw:          "```json\n{\"summary\":\"ok\"}\n```",
			wantText:     "ok",
			wantStrategy: StrategyDirectJSON,
		},
		{
			name:         "bare fence",
			raw:          "```\n{\"summary\": \"  padded  \"}\n```",
			wantText:     "padded",
			wantStrategy: StrategyDirectJSON,
		},
		{
			name:         "prose around object",
			raw:          "Sure! Here is the JSON: {\"summary\": \"Patient is improving.\"} Let me know.",
			wantText:     "Patient is improving.",
			wantStrategy: StrategyBracedSubstring,
		},
		{
			name:         "broken json keeps summary field",
			raw:          "{\"summary\": \"Follow-up needed\", \"extra\": }",
			wantText:     "Follow-up needed",
			wantStrategy: StrategyFieldRegex,
		},
		{
			name:         "plain label",
			raw:          "Summary: Patient reports improvement.",
			wantText:     "Patient reports improvement.",
			wantStrategy: StrategyRawText,
		},
		{
			name:         "markdown heading",
			raw:          "## Summary:\nPatient reports improvement.",
			wantText:     "Patient reports improvement.",
			wantStrategy: StrategyRawText,
		},
		{
			name:         "empty summary falls back to raw",
			raw:          "{\"summary\": \"   \"}",
			wantText:     "{\"summary\": \"   \"}",
			wantStrategy: StrategyRawText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSummary(tt.raw)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantStrategy, got.Strategy)
		})
	}
}

func TestCleanSummary_BoldLabels(t *testing.T) {
	in := "- **Reason**: missed visit\n* **Plan**: call back\n**Note**: prefers email"
	assert.Equal(t, "- missed visit\n- call back\nprefers email", CleanSummary(in))
}

func TestSummaryStrategies_Independent(t *testing.T) {
	_, ok := extractDirectJSON("not json")
	assert.False(t, ok)

	text, ok := extractBracedSubstring("x {\"summary\":\"a\"} y")
	assert.True(t, ok)
	assert.Equal(t, "a", text)

	_, ok = extractBracedSubstring("} {")
	assert.False(t, ok)

	text, ok = extractFieldRegex("\"Summary\" : \"multi\nline\" trailing")
	assert.True(t, ok)
	assert.Equal(t, "multi\nline", text)
}

func TestUnfence(t *testing.T) {
	assert.Equal(t, "[1]", Unfence("  ```JSON\n[1]\n```  "))
	assert.Equal(t, "plain", Unfence("plain"))
}
