package generation

import (
	"fmt"
	"strings"
)

// Task selects which prompt to build
type Task string

const (
	TaskSummarize    Task = "summarize"
	TaskExtractLeads Task = "extract_leads"
)

// WarmupPrompt is the throwaway prompt used to check backend readiness.
const WarmupPrompt = "ping"

const summaryInstructions = "Summarize the transcript concisely for an ops dashboard.\n" +
	"Output must be STRICT JSON object only with one key:\n" +
	"- {\"summary\":\"...\"}\n" +
	"Do not output markdown, headings, labels, or any extra keys.\n" +
	"Keep summary to one short paragraph or concise unlabeled bullets.\n" +
	"Content rules: do not invent facts, do not include PHI, keep it neutral and concise.\n\n"

const leadInstructions = "You are extracting retention leads from a professional transcript/notes between a licensed healthcare provider and a patient.\n" +
	"The business goal is medical-provider retention and patient re-engagement with the same provider/practice.\n" +
	"Output must be STRICT JSON array only, no markdown, no extra text.\n" +
	"Each array item keys:\n" +
	"- \"title\": concise lead title\n" +
	"- \"reason\": why this is an opportunity based on transcript facts\n" +
	"- \"next_action\": concrete provider-staff follow-up action sentence\n" +
	"- \"outreach_channel\": one of \"call\", \"text\", \"email\"\n" +
	"- \"lead_score\": number 0.0 to 1.0\n" +
	"- \"due_in_days\": integer 0 to 30\n" +
	"Rules: no PHI, no invented facts, return exactly one best lead when present, otherwise return [].\n" +
	"Critical constraints for next_action:\n" +
	"- Must be what provider staff should do (call, email, schedule, rebook, adherence check-in).\n" +
	"- Must drive retention/revenue for this provider.\n" +
	"- Must start with outreach/check-in, not direct scheduling.\n" +
	"- Scheduling must happen only at patient will (after patient confirms interest/availability).\n" +
	"- Frame scheduling as conditional follow-on, never as an immediate directive.\n" +
	"- Focus on contact for revisit intent and readiness for next visit.\n" +
	"- Must NOT be patient self-care advice.\n" +
	"- Must NOT recommend referral-out as primary action.\n" +
	"Good examples of next_action style:\n" +
	"- \"Call to check whether sleep symptoms are still impacting daily function and ask if they want to revisit; share slots only if they confirm.\"\n" +
	"- \"Send a check-in email about the missed visit and ask if they want to continue care; provide booking options only after they opt in.\"\n" +
	"- \"Send medication adherence check-in and ask whether they want a follow-up discussion; schedule only if they request it.\"\n\n"

// BuildPrompt returns the instructions for task followed by the transcript text verbatim.
func BuildPrompt(task Task, transcriptText string) (string, error) {
	var instructions string
	switch task {
	case TaskSummarize:
		instructions = summaryInstructions
	case TaskExtractLeads:
		instructions = leadInstructions
	default:
		return "", fmt.Errorf("unknown prompt task %q", task)
	}

	var b strings.Builder
	b.Grow(len(instructions) + len(transcriptText) + 16)
	b.WriteString(instructions)
	b.WriteString("Transcript:\n")
	b.WriteString(transcriptText)
	return b.String(), nil
}
