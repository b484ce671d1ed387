package evaluation

import (
	"regexp"
	"strings"

	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
)

// PolicyFlag names a lead wording rule the model output appears to break.
type PolicyFlag string

const (
	FlagDirectScheduling PolicyFlag = "direct_scheduling"
	FlagSelfCareAdvice   PolicyFlag = "self_care_advice"
	FlagReferralOut      PolicyFlag = "referral_out"
	FlagLowScore         PolicyFlag = "low_score"
)

var (
	schedulingLead  = regexp.MustCompile(`(?i)^\s*(schedule|book|rebook|reschedule)\b`)
	conditionalTerm = regexp.MustCompile(`(?i)\b(if|only|once|after|whether)\b`)
	selfCareTerm    = regexp.MustCompile(`(?i)\b(you should|make sure to|try to|remember to|drink|get more rest|take your)\b`)
	referralTerm    = regexp.MustCompile(`(?i)\b(refer(ral)?|see a specialist|another provider|urgent care|emergency room)\b`)
)

type GuardrailConfig struct {
	MinLeadScore float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinLeadScore < 0 {
		config.MinLeadScore = 0
	}
	return &Guardrails{config: config}
}

// Check returns the policy flags raised by a draft. Flags never block persistence.
func (g *Guardrails) Check(draft entities.LeadOpportunityDraft) []PolicyFlag {
	flags := make([]PolicyFlag, 0)
	action := strings.TrimSpace(draft.NextAction)

	if schedulingLead.MatchString(action) && !conditionalTerm.MatchString(action) {
		flags = append(flags, FlagDirectScheduling)
	}
	if selfCareTerm.MatchString(action) {
		flags = append(flags, FlagSelfCareAdvice)
	}
	if referralTerm.MatchString(action) {
		flags = append(flags, FlagReferralOut)
	}
	if draft.LeadScore < g.config.MinLeadScore {
		flags = append(flags, FlagLowScore)
	}
	return flags
}

// FlagStrings converts flags for JSON metadata.
func FlagStrings(flags []PolicyFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}
