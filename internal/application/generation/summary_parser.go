package generation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Summary strategy names, reported with the parsed result.
const (
	StrategyDirectJSON      = "direct_json"
	StrategyBracedSubstring = "braced_substring"
	StrategyFieldRegex      = "field_regex"
	StrategyRawText         = "raw_text"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("(?i)\\s*```$")

	summaryFieldPattern = regexp.MustCompile(`(?is)"summary"\s*:\s*"(.*?)"`)

	headingLabel     = regexp.MustCompile(`(?i)^#{1,6}\s*summary\s*:?\s*`)
	bareLabel        = regexp.MustCompile(`(?i)^summary\s*:?\s*`)
	boldBulletLabel  = regexp.MustCompile(`(?im)^\s*[-*]\s*\*\*[^*]+\*\*:\s*`)
	boldLeadingLabel = regexp.MustCompile(`(?im)^\s*\*\*[^*]+\*\*:\s*`)
)

// SummaryStrategy extracts a summary from unfenced model output.
type SummaryStrategy struct {
	Name    string
	Extract func(unfenced string) (string, bool)
}

// SummaryStrategies is the ordered extraction chain; the raw-text fallback runs after it.
var SummaryStrategies = []SummaryStrategy{
	{Name: StrategyDirectJSON, Extract: extractDirectJSON},
	{Name: StrategyBracedSubstring, Extract: extractBracedSubstring},
	{Name: StrategyFieldRegex, Extract: extractFieldRegex},
}

// ParsedSummary is the cleaned summary and the strategy that produced it.
type ParsedSummary struct {
	Text     string
	Strategy string
}

// Unfence trims whitespace and a surrounding code fence with an optional json tag.
func Unfence(raw string) string {
	text := strings.TrimSpace(raw)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ParseSummary extracts and cleans a summary. It never fails: output that no
// strategy recognizes is returned as the unfenced text.
func ParseSummary(raw string) ParsedSummary {
	unfenced := Unfence(raw)
	for _, strategy := range SummaryStrategies {
		if text, ok := strategy.Extract(unfenced); ok {
			return ParsedSummary{Text: CleanSummary(text), Strategy: strategy.Name}
		}
	}
	return ParsedSummary{Text: CleanSummary(unfenced), Strategy: StrategyRawText}
}

// CleanSummary strips heading and label preambles while keeping bullet content.
func CleanSummary(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = headingLabel.ReplaceAllString(cleaned, "")
	cleaned = bareLabel.ReplaceAllString(cleaned, "")
	cleaned = boldBulletLabel.ReplaceAllString(cleaned, "- ")
	cleaned = boldLeadingLabel.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func summaryFromJSON(candidate string) (string, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return "", false
	}
	summary, ok := payload["summary"].(string)
	if !ok {
		return "", false
	}
	summary = strings.TrimSpace(summary)
	return summary, summary != ""
}

func extractDirectJSON(unfenced string) (string, bool) {
	return summaryFromJSON(unfenced)
}

func extractBracedSubstring(unfenced string) (string, bool) {
	start := strings.Index(unfenced, "{")
	end := strings.LastIndex(unfenced, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return summaryFromJSON(unfenced[start : end+1])
}

func extractFieldRegex(unfenced string) (string, bool) {
	match := summaryFieldPattern.FindStringSubmatch(unfenced)
	if len(match) < 2 {
		return "", false
	}
	summary := strings.TrimSpace(match[1])
	return summary, summary != ""
}
