package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/zatekoja/transcript-triage/backend/internal/application/generation"
)

// LoadGoldenTranscripts reads and parses a golden transcript set from a JSON file.
func LoadGoldenTranscripts(path string) ([]GoldenTranscript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden transcripts file: %w", err)
	}

	var cases []GoldenTranscript
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse golden transcripts: %w", err)
	}

	return cases, nil
}

// ValidateGoldenTranscripts checks that all cases have required fields and valid values.
func ValidateGoldenTranscripts(cases []GoldenTranscript) error {
	seen := make(map[string]struct{}, len(cases))

	for i, c := range cases {
		if c.ID == "" {
			return fmt.Errorf("case at index %d: missing id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("case at index %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}

		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("case %q: missing transcript text", c.ID)
		}
		if !c.Difficulty.IsValid() {
			return fmt.Errorf("case %q: invalid difficulty %q (must be easy/medium/hard)", c.ID, c.Difficulty)
		}
		if c.ExpectedChannel != "" {
			if !c.ExpectLead {
				return fmt.Errorf("case %q: expected_channel set without expect_lead", c.ID)
			}
			if string(generation.NormalizeOutreachChannel(c.ExpectedChannel)) != c.ExpectedChannel {
				return fmt.Errorf("case %q: invalid expected_channel %q", c.ID, c.ExpectedChannel)
			}
		}
	}

	return nil
}
