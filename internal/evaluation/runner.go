package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/application/generation"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
)

// Runner runs the lead extraction prompt across a set of golden transcripts.
type Runner struct {
	generator  providers.TextGenerator
	guardrails *Guardrails
	timeout    time.Duration
}

func NewRunner(generator providers.TextGenerator, guardrails *Guardrails, timeout time.Duration) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{generator: generator, guardrails: guardrails, timeout: timeout}
}

func (r *Runner) Run(ctx context.Context, model string, cases []GoldenTranscript) (*EvalSummary, []EvalResult, error) {
	summary := &EvalSummary{
		Model:        model,
		TotalCases:   len(cases),
		ByDifficulty: make(map[Difficulty]*DifficultySummary),
	}

	results := make([]EvalResult, 0, len(cases))
	for _, gc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		results = append(results, r.evaluate(ctx, model, gc))
	}

	r.summarize(summary, results)
	return summary, results, nil
}

func (r *Runner) evaluate(ctx context.Context, model string, gc GoldenTranscript) EvalResult {
	result := EvalResult{
		CaseID:     gc.ID,
		Difficulty: gc.Difficulty,
		ExpectLead: gc.ExpectLead,
	}

	prompt, err := generation.BuildPrompt(generation.TaskExtractLeads, gc.Text)
	if err != nil {
		result.Err = err
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	raw, err := r.generator.Generate(callCtx, model, prompt)
	result.Latency = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}

	parsed := generation.ParseLeadCandidates(raw)
	result.LeadsStrategy = parsed.Strategy

	drafts := generation.NormalizeLeadDrafts(parsed.Items)
	if len(drafts) == 0 {
		result.ChannelMatch = gc.ExpectedChannel == ""
		return result
	}

	draft := drafts[0]
	result.GotLead = true
	result.Channel = string(draft.OutreachChannel)
	result.ChannelMatch = gc.ExpectedChannel == "" || gc.ExpectedChannel == result.Channel
	result.PolicyFlags = r.guardrails.Check(draft)
	return result
}

func (r *Runner) summarize(s *EvalSummary, results []EvalResult) {
	var completed, channelHits, fallbacks, flagged int
	var totalLatency time.Duration

	for _, res := range results {
		if res.Err != nil {
			s.BackendFailures++
			continue
		}
		completed++
		totalLatency += res.Latency

		if res.ChannelMatch {
			channelHits++
		}
		if res.LeadsStrategy != generation.StrategyDirectArray {
			fallbacks++
		}
		if len(res.PolicyFlags) > 0 {
			flagged++
		}

		ds, ok := s.ByDifficulty[res.Difficulty]
		if !ok {
			ds = &DifficultySummary{}
			s.ByDifficulty[res.Difficulty] = ds
		}
		ds.Count++
		if res.GotLead == res.ExpectLead {
			ds.LeadYieldCorrect++
		}
	}

	s.LeadPrecision, s.LeadRecall = LeadPrecisionRecall(results)
	s.ChannelAccuracy = Rate(channelHits, completed)
	s.ParseFallbackRate = Rate(fallbacks, completed)
	s.PolicyFlagRate = Rate(flagged, completed)
	if completed > 0 {
		s.AvgLatency = totalLatency / time.Duration(completed)
	}
}
