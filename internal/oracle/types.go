package oracle

import "errors"

// NewSkillTarget is the sentinel target a council member proposes when no
// existing skill document fits the signal.
const NewSkillTarget = "NEW_SKILL"

// Confidence grades a council proposal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// rank orders confidences for taking the minimum across council members.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether c is a known confidence grade.
func (c Confidence) Valid() bool {
	return c.rank() > 0
}

// Min returns the lower of two confidences.
func (c Confidence) Min(other Confidence) Confidence {
	if other.rank() < c.rank() {
		return other
	}
	return c
}

// Reflection is a proposed change to a skill document, derived from a
// signal. It is created once by the analyzer and never mutated.
type Reflection struct {
	// SignalFingerprint links back to the originating signal.
	SignalFingerprint string

	// Target is the name of an existing skill, or NewSkillTarget.
	Target string

	// ChangeDescription describes the learning to fold into the skill.
	ChangeDescription string

	// Rationale explains why the council believes the change is right.
	Rationale string

	// Confidence is the consensus confidence grade.
	Confidence Confidence
}

// IsNewSkill reports whether the reflection proposes creating a skill from
// scratch.
func (r *Reflection) IsNewSkill() bool {
	return r.Target == NewSkillTarget
}

// SessionContext carries the context the council sees alongside a signal.
type SessionContext struct {
	// ProjectKey identifies the project the session belongs to.
	ProjectKey string

	// SessionID identifies the source conversation.
	SessionID string

	// SkillNames lists the skill documents available as targets.
	SkillNames []string

	// RecentTurns holds the utterances surrounding the signal, for
	// grounding.
	RecentTurns []string
}

var (
	// ErrOracleUnavailable is returned when the council cannot be
	// reached or no member produced a usable proposal. Callers treat
	// this as "defer": the signal is retried on a later run and no
	// ledger state is written.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrNoConsensus is returned when council members answered but no
	// strict majority agreed on a target. Also treated as "defer".
	ErrNoConsensus = errors.New("no council consensus")
)
