package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/roasbeef/skillreflect/internal/db/sqlc"
)

// Outcome is the resolution state of an evaluated signal.
type Outcome string

const (
	// OutcomeApplied means the reflection was folded into its target
	// skill document.
	OutcomeApplied Outcome = "applied"

	// OutcomeSkippedLowConfidence means the reflection was filtered
	// before reaching a reviewer or the updater.
	OutcomeSkippedLowConfidence Outcome = "skipped_low_confidence"

	// OutcomeSkippedNewSkill means the reflection targeted a skill that
	// does not exist yet; creating skills is a human decision. This is
	// the outcome class whose missing ledger write caused the original
	// unbounded reprocessing incident: it is recorded like any other.
	OutcomeSkippedNewSkill Outcome = "skipped_new_skill"

	// OutcomeRejectedByReviewer means a human reviewer declined the
	// reflection.
	OutcomeRejectedByReviewer Outcome = "rejected_by_reviewer"

	// OutcomePendingReview means the reflection awaits a human decision.
	// This is the only non-terminal outcome: it may transition exactly
	// once to a terminal one.
	OutcomePendingReview Outcome = "pending_review"
)

// ReviewerAutoSkipped is the reviewer identifier recorded for
// machine-filtered outcomes.
const ReviewerAutoSkipped = "auto-skipped"

// ReviewerAutoApproved is the reviewer identifier recorded when an
// auto-approve run applies a reflection without a human in the loop.
const ReviewerAutoApproved = "auto-approved"

// IsTerminal reports whether the outcome permanently resolves a signal.
// Signals with terminal outcomes are never re-evaluated; pending_review
// entries block re-evaluation too but remain resolvable.
func (o Outcome) IsTerminal() bool {
	return o != OutcomePendingReview && o != ""
}

// Valid reports whether o is a known outcome value.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApplied, OutcomeSkippedLowConfidence,
		OutcomeSkippedNewSkill, OutcomeRejectedByReviewer,
		OutcomePendingReview:

		return true
	default:
		return false
	}
}

// Entry is the durable record of a signal's evaluation. Exactly one Entry
// exists per fingerprint; terminal entries are immutable.
type Entry struct {
	Fingerprint       string
	SessionID         string
	SignalKind        string
	SkillName         string
	RawText           string
	Confidence        string
	ChangeDescription string
	Rationale         string
	Outcome           Outcome
	ReviewedBy        string
	CreatedAt         time.Time
	ResolvedAt        fn.Option[time.Time]
}

// HistoryRecord is one row in the queryable audit history, written for every
// terminal resolution.
type HistoryRecord struct {
	ID          int64
	Fingerprint string
	SkillName   string
	Confidence  string
	Outcome     Outcome
	ReviewedBy  string
	AppliedAt   time.Time
}

var (
	// ErrEntryNotFound is returned when no ledger entry exists for a
	// fingerprint.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrNotPending is returned when attempting to resolve an entry that
	// is not in the pending_review state.
	ErrNotPending = errors.New("ledger entry is not pending review")

	// ErrInvalidOutcome is returned when an unknown outcome value is
	// recorded.
	ErrInvalidOutcome = errors.New("invalid ledger outcome")
)

// TerminalConflictError is returned when a fingerprint is recorded with an
// outcome that differs from its existing terminal entry. The existing entry
// is authoritative; callers log and discard.
type TerminalConflictError struct {
	Fingerprint string
	Existing    Outcome
	Attempted   Outcome
}

// Error returns the error message.
func (e *TerminalConflictError) Error() string {
	return fmt.Sprintf("fingerprint %s already resolved as %q, "+
		"refusing to record %q", e.Fingerprint, e.Existing,
		e.Attempted)
}

// entryFromSqlc converts a sqlc row to the domain type.
func entryFromSqlc(row sqlc.LedgerEntry) Entry {
	entry := Entry{
		Fingerprint:       row.Fingerprint,
		SessionID:         row.SessionID,
		SignalKind:        row.SignalKind,
		RawText:           row.RawText,
		Confidence:        row.Confidence,
		ChangeDescription: row.ChangeDescription,
		Rationale:         row.Rationale,
		Outcome:           Outcome(row.Outcome),
		ReviewedBy:        row.ReviewedBy,
		CreatedAt:         time.Unix(row.CreatedAt, 0),
		ResolvedAt:        fn.None[time.Time](),
	}

	if row.SkillName.Valid {
		entry.SkillName = row.SkillName.String
	}
	if row.ResolvedAt.Valid {
		entry.ResolvedAt = fn.Some(time.Unix(row.ResolvedAt.Int64, 0))
	}

	return entry
}

// historyFromSqlc converts a sqlc row to the domain type.
func historyFromSqlc(row sqlc.SkillReflection) HistoryRecord {
	return HistoryRecord{
		ID:          row.ID,
		Fingerprint: row.Fingerprint,
		SkillName:   row.SkillName,
		Confidence:  row.Confidence,
		Outcome:     Outcome(row.Outcome),
		ReviewedBy:  row.ReviewedBy,
		AppliedAt:   time.Unix(row.AppliedAt, 0),
	}
}
