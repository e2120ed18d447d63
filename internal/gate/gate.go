// Package gate decides what happens to a reflection proposal: auto-apply,
// park for human review, or filter it out. Every decision maps to a ledger
// outcome so no path can leave a signal unrecorded.
package gate

import (
	"fmt"

	"github.com/roasbeef/skillreflect/internal/ledger"
	"github.com/roasbeef/skillreflect/internal/oracle"
)

// Mode selects how much automation a run is allowed.
type Mode string

const (
	// ModeInteractive surfaces high and medium confidence reflections to
	// a human reviewer.
	ModeInteractive Mode = "interactive"

	// ModeDryRun computes decisions but suppresses every side effect,
	// including ledger writes: a later real run must reprocess
	// everything a dry run saw.
	ModeDryRun Mode = "dry_run"

	// ModeAutoApprove applies high confidence reflections without a
	// reviewer. Lower confidences still park for review.
	ModeAutoApprove Mode = "auto_approve"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeInteractive, ModeDryRun, ModeAutoApprove:
		return true
	default:
		return false
	}
}

// Action is what the engine should do with a reflection.
type Action string

const (
	// ActionApply folds the reflection into its target skill document.
	ActionApply Action = "apply"

	// ActionAskReviewer presents the reflection for a manual
	// approve/reject decision.
	ActionAskReviewer Action = "ask_reviewer"

	// ActionPark records the reflection as pending_review without
	// asking anyone now.
	ActionPark Action = "park"

	// ActionSkipNewSkill drops the reflection because it targets a
	// skill that does not exist; creating one is a human decision.
	ActionSkipNewSkill Action = "skip_new_skill"
)

// Decision is the gate's verdict for one reflection.
type Decision struct {
	// Action tells the engine what to do.
	Action Action

	// Outcome is the ledger outcome to record when Action needs no
	// further input (for ActionAskReviewer the outcome depends on the
	// reviewer's answer).
	Outcome ledger.Outcome

	// ReviewedBy is the actor to record for machine-made decisions.
	ReviewedBy string
}

// Decide maps a reflection's confidence and target through the mode's
// policy table. It is a pure function: the engine owns all side effects.
//
// NEW_SKILL targets short-circuit to a recorded skip in every mode; this is
// the outcome class that historically went unrecorded and caused unbounded
// reprocessing, so it is never allowed to fall through.
func Decide(r *oracle.Reflection, mode Mode) (Decision, error) {
	if !mode.Valid() {
		return Decision{}, fmt.Errorf("unknown gate mode %q", mode)
	}
	if !r.Confidence.Valid() {
		return Decision{}, fmt.Errorf("unknown confidence %q",
			r.Confidence)
	}

	if r.IsNewSkill() {
		return Decision{
			Action:     ActionSkipNewSkill,
			Outcome:    ledger.OutcomeSkippedNewSkill,
			ReviewedBy: ledger.ReviewerAutoSkipped,
		}, nil
	}

	// Dry run computes real decisions so the run report shows what
	// would happen: high would apply, medium would ask, low would
	// park. The engine suppresses all persistence.
	switch r.Confidence {
	case oracle.ConfidenceHigh:
		if mode == ModeInteractive {
			return Decision{Action: ActionAskReviewer}, nil
		}
		return Decision{
			Action:     ActionApply,
			Outcome:    ledger.OutcomeApplied,
			ReviewedBy: ledger.ReviewerAutoApproved,
		}, nil

	case oracle.ConfidenceMedium:
		if mode == ModeAutoApprove {
			// Parked entries carry no reviewer until a human
			// resolves them.
			return Decision{
				Action:  ActionPark,
				Outcome: ledger.OutcomePendingReview,
			}, nil
		}
		return Decision{Action: ActionAskReviewer}, nil

	default:
		// Low confidence never auto-applies. It parks for a human
		// to resolve later, regardless of mode.
		return Decision{
			Action:  ActionPark,
			Outcome: ledger.OutcomePendingReview,
		}, nil
	}
}
