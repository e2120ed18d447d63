// Package reflect orchestrates the reflection pipeline: detect signals in
// a session transcript, analyze them through the model council, gate by
// confidence, fold accepted learnings into skill documents, and record
// every resolution in the deduplication ledger.
package reflect

import (
	"time"

	"github.com/roasbeef/skillreflect/internal/gate"
	"github.com/roasbeef/skillreflect/internal/oracle"
	"github.com/roasbeef/skillreflect/internal/signal"
	"github.com/roasbeef/skillreflect/internal/skilldoc"
)

// Config holds the knobs for building a full pipeline. Zero values fall
// back to the component defaults.
type Config struct {
	// DBPath is the SQLite ledger database file.
	DBPath string

	// SkillsDir is the directory holding skill documents.
	SkillsDir string

	// TranscriptBase is the Claude data directory holding session
	// transcripts (default ~/.claude).
	TranscriptBase string

	// Models lists the council members.
	Models []string

	// APIKey authenticates council calls.
	APIKey string

	// BaseURL overrides the council provider endpoint.
	BaseURL string

	// OracleTimeout bounds each council member call.
	OracleTimeout time.Duration

	// RepeatThreshold is the cross-session repetition count that
	// promotes a phrase to a signal.
	RepeatThreshold int

	// LookbackWindow bounds the repetition scan over past sessions.
	LookbackWindow time.Duration

	// MergeStrategy resolves learning collisions in skill documents.
	MergeStrategy skilldoc.MergeStrategy

	// NatsURL, when set, enables best-effort event publishing.
	NatsURL string

	// ReviewerID is recorded as the resolving actor for interactive
	// decisions.
	ReviewerID string
}

// DefaultConfig returns a Config wired to the component defaults.
func DefaultConfig() Config {
	oracleCfg := oracle.DefaultConfig()
	detectCfg := signal.DefaultDetectorConfig()

	return Config{
		Models:          oracleCfg.Models,
		OracleTimeout:   oracleCfg.CallTimeout,
		RepeatThreshold: detectCfg.RepeatThreshold,
		LookbackWindow:  detectCfg.LookbackWindow,
		MergeStrategy:   skilldoc.StrategyAuto,
	}
}

// RunRequest describes one pipeline run.
type RunRequest struct {
	// ProjectKey locates the transcript directory.
	ProjectKey string

	// SessionID is the session to scan.
	SessionID string

	// SkillFilter, when set, restricts applies to one skill;
	// reflections targeting other skills are left for a later run.
	SkillFilter string

	// Mode is the gate mode for this run.
	Mode gate.Mode
}

// Summary reports the per-run counts.
type Summary struct {
	// RunID is the unique identifier of this run.
	RunID string `json:"run_id"`

	// Detected is the number of signals extracted from the transcript.
	Detected int `json:"detected"`

	// AlreadySeen counts signals dropped because the ledger already
	// holds an entry for their fingerprint.
	AlreadySeen int `json:"already_seen"`

	// Proposed counts reflections returned by the council.
	Proposed int `json:"proposed"`

	// Applied counts reflections folded into skill documents (or that
	// would be, in dry-run mode).
	Applied int `json:"applied"`

	// Deferred counts signals left unrecorded for a later run: council
	// failures, no consensus, and skill-filter misses.
	Deferred int `json:"deferred"`

	// Skipped counts machine-filtered terminal outcomes.
	Skipped int `json:"skipped"`

	// Pending counts entries parked for human review.
	Pending int `json:"pending"`

	// Rejected counts reviewer rejections.
	Rejected int `json:"rejected"`

	// DryRun marks that no ledger or file writes happened.
	DryRun bool `json:"dry_run,omitempty"`
}

// counts flattens the summary for the run event payload.
func (s Summary) counts() map[string]int {
	return map[string]int{
		"detected":     s.Detected,
		"already_seen": s.AlreadySeen,
		"proposed":     s.Proposed,
		"applied":      s.Applied,
		"deferred":     s.Deferred,
		"skipped":      s.Skipped,
		"pending":      s.Pending,
		"rejected":     s.Rejected,
	}
}
