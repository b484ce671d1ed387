package generation

import (
	"encoding/json"
	"strings"
)

// Leads strategy names
const (
	StrategyDirectArray    = "direct_array"
	StrategyBracketedArray = "bracketed_substring"
	StrategyNoCandidates   = "none"
)

// ParsedCandidates holds untyped lead candidates decoded from model output.
type ParsedCandidates struct {
	Items    []interface{}
	Strategy string
}

// ParseLeadCandidates decodes a JSON array of lead candidates. Anything that is
// not an array, directly or between the first '[' and last ']', yields no items.
func ParseLeadCandidates(raw string) ParsedCandidates {
	unfenced := Unfence(raw)

	if items, ok := decodeArray(unfenced); ok {
		return ParsedCandidates{Items: items, Strategy: StrategyDirectArray}
	}

	start := strings.Index(unfenced, "[")
	end := strings.LastIndex(unfenced, "]")
	if start >= 0 && end > start {
		if items, ok := decodeArray(unfenced[start : end+1]); ok {
			return ParsedCandidates{Items: items, Strategy: StrategyBracketedArray}
		}
	}

	return ParsedCandidates{Items: []interface{}{}, Strategy: StrategyNoCandidates}
}

// decodeArray keeps numbers as json.Number so out-of-range values reach the
// normalizer as non-finite instead of failing the whole decode.
func decodeArray(candidate string) ([]interface{}, bool) {
	decoder := json.NewDecoder(strings.NewReader(candidate))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}
	if strings.TrimSpace(candidate[decoder.InputOffset():]) != "" {
		return nil, false
	}
	items, ok := value.([]interface{})
	if !ok {
		// a well-formed non-array value is a definite miss, not a reason to scan substrings
		return []interface{}{}, true
	}
	return items, true
}
