package evaluation

import "time"

// Difficulty grades how ambiguous a golden transcript is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty value is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GoldenTranscript is a labeled transcript with the expected lead outcome.
type GoldenTranscript struct {
	ID              string     `json:"id"`
	Text            string     `json:"text"`
	ExpectLead      bool       `json:"expect_lead"`
	ExpectedChannel string     `json:"expected_channel,omitempty"`
	Difficulty      Difficulty `json:"difficulty"`
}

// EvalResult holds the outcome for a single golden transcript.
type EvalResult struct {
	CaseID        string
	Difficulty    Difficulty
	LeadsStrategy string
	GotLead       bool
	ExpectLead    bool
	Channel       string
	ChannelMatch  bool
	PolicyFlags   []PolicyFlag
	Latency       time.Duration
	Err           error
}

// EvalSummary holds aggregate metrics across all golden transcripts.
type EvalSummary struct {
	Model             string
	TotalCases        int
	BackendFailures   int
	LeadPrecision     float64
	LeadRecall        float64
	ChannelAccuracy   float64
	ParseFallbackRate float64
	PolicyFlagRate    float64
	AvgLatency        time.Duration
	ByDifficulty      map[Difficulty]*DifficultySummary
}

// DifficultySummary holds metrics grouped by difficulty.
type DifficultySummary struct {
	Count            int
	LeadYieldCorrect int
}
