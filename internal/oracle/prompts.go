package oracle

import (
	"fmt"
	"strings"

	"github.com/roasbeef/skillreflect/internal/signal"
)

// councilSystemPrompt instructs a council member to evaluate one signal and
// answer with a strict JSON proposal.
const councilSystemPrompt = `You evaluate correction signals extracted from coding assistant conversations and decide whether they should become durable skill learnings.

Respond with a single JSON object and nothing else:
{
  "target": "<name of an existing skill from the list, or NEW_SKILL>",
  "change_description": "<one or two sentences describing the learning>",
  "rationale": "<why this is worth recording>",
  "confidence": "high" | "medium" | "low"
}

Rules:
- Only pick a target from the provided skill list, or NEW_SKILL if none fits.
- high confidence: an unambiguous, generalizable correction.
- medium: useful but context-dependent.
- low: plausible noise; might be a one-off preference.`

// buildCouncilPrompt renders the signal and its session context into the
// user prompt for one council call.
func buildCouncilPrompt(sig signal.Signal, sctx SessionContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Signal kind: %s\n", sig.Kind)
	fmt.Fprintf(&b, "Signal text: %s\n\n", sig.RawText)

	if len(sctx.SkillNames) > 0 {
		fmt.Fprintf(&b, "Available skills:\n")
		for _, name := range sctx.SkillNames {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(sctx.RecentTurns) > 0 {
		b.WriteString("Conversation context:\n")
		for _, turn := range sctx.RecentTurns {
			fmt.Fprintf(&b, "> %s\n", truncate(turn, 400))
		}
	}

	return b.String()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
