package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roasbeef/skillreflect/internal/gate"
	"github.com/roasbeef/skillreflect/internal/ledger"
	"github.com/roasbeef/skillreflect/internal/reflect"
)

// defaultHistoryWindow bounds history queries without an explicit since.
const defaultHistoryWindow = 30 * 24 * time.Hour

// RunArgs are the arguments for the reflect_run tool.
type RunArgs struct {
	// SessionID is the session transcript to scan.
	SessionID string `json:"session_id" jsonschema:"Claude Code session ID to scan"`

	// ProjectKey selects the transcript project directory.
	ProjectKey string `json:"project_key,omitempty" jsonschema:"Project directory key under ~/.claude/projects"`

	// Skill restricts applies to one target skill.
	Skill string `json:"skill,omitempty" jsonschema:"Only apply reflections targeting this skill"`

	// DryRun previews decisions without writing anything.
	DryRun bool `json:"dry_run,omitempty" jsonschema:"Compute decisions without ledger or file writes"`
}

// RunResult is the result of the reflect_run tool.
type RunResult struct {
	Summary reflect.Summary `json:"summary"`
}

func (s *Server) handleRun(ctx context.Context,
	req *mcp.CallToolRequest, args RunArgs) (*mcp.CallToolResult, RunResult, error) {

	if args.SessionID == "" {
		return nil, RunResult{}, fmt.Errorf("session_id is required")
	}

	// MCP callers have no terminal, so interactive mode is off the
	// table: everything above the auto-apply bar parks for review.
	mode := gate.ModeAutoApprove
	if args.DryRun {
		mode = gate.ModeDryRun
	}

	summary, err := s.engine.Run(ctx, reflect.RunRequest{
		ProjectKey:  args.ProjectKey,
		SessionID:   args.SessionID,
		SkillFilter: args.Skill,
		Mode:        mode,
	})
	if err != nil {
		return nil, RunResult{}, err
	}

	return nil, RunResult{Summary: summary}, nil
}

// PendingArgs are the arguments for the reflect_pending tool.
type PendingArgs struct{}

// PendingEntry is one entry awaiting review.
type PendingEntry struct {
	Fingerprint string `json:"fingerprint"`
	SessionID   string `json:"session_id"`
	SignalKind  string `json:"signal_kind"`
	SkillName   string `json:"skill_name,omitempty"`
	RawText     string `json:"raw_text"`
	Confidence  string `json:"confidence,omitempty"`
	Change      string `json:"change,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// PendingResult is the result of the reflect_pending tool.
type PendingResult struct {
	Entries []PendingEntry `json:"entries"`
}

func (s *Server) handlePending(ctx context.Context,
	req *mcp.CallToolRequest, args PendingArgs) (*mcp.CallToolResult, PendingResult, error) {

	entries, err := s.engine.Pending(ctx)
	if err != nil {
		return nil, PendingResult{}, err
	}

	result := PendingResult{
		Entries: make([]PendingEntry, len(entries)),
	}
	for i, entry := range entries {
		result.Entries[i] = PendingEntry{
			Fingerprint: entry.Fingerprint,
			SessionID:   entry.SessionID,
			SignalKind:  entry.SignalKind,
			SkillName:   entry.SkillName,
			RawText:     entry.RawText,
			Confidence:  entry.Confidence,
			Change:      entry.ChangeDescription,
			Rationale:   entry.Rationale,
			CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		}
	}

	return nil, result, nil
}

// ResolveArgs are the arguments for the reflect_resolve tool.
type ResolveArgs struct {
	// Fingerprint identifies the pending entry.
	Fingerprint string `json:"fingerprint" jsonschema:"Fingerprint of the pending entry"`

	// Outcome is the terminal outcome to record.
	Outcome string `json:"outcome" jsonschema:"Terminal outcome: applied, rejected_by_reviewer, skipped_low_confidence, or skipped_new_skill"`

	// Reviewer identifies the resolving actor.
	Reviewer string `json:"reviewer" jsonschema:"Identifier of the human reviewer"`
}

// ResolveResult is the result of the reflect_resolve tool.
type ResolveResult struct {
	Fingerprint string `json:"fingerprint"`
	Outcome     string `json:"outcome"`
	SkillName   string `json:"skill_name,omitempty"`
}

func (s *Server) handleResolve(ctx context.Context,
	req *mcp.CallToolRequest, args ResolveArgs) (*mcp.CallToolResult, ResolveResult, error) {

	if args.Fingerprint == "" {
		return nil, ResolveResult{}, fmt.Errorf("fingerprint is required")
	}
	if args.Reviewer == "" {
		return nil, ResolveResult{}, fmt.Errorf("reviewer is required")
	}

	outcome := ledger.Outcome(args.Outcome)
	if !outcome.Valid() || !outcome.IsTerminal() {
		return nil, ResolveResult{}, fmt.Errorf(
			"outcome %q is not a terminal outcome", args.Outcome)
	}

	entry, err := s.engine.Resolve(ctx, args.Fingerprint, outcome,
		args.Reviewer)
	if err != nil {
		return nil, ResolveResult{}, err
	}

	return nil, ResolveResult{
		Fingerprint: entry.Fingerprint,
		Outcome:     string(outcome),
		SkillName:   entry.SkillName,
	}, nil
}

// HistoryArgs are the arguments for the reflect_history tool.
type HistoryArgs struct {
	// Skill filters history to one skill.
	Skill string `json:"skill,omitempty" jsonschema:"Only show history for this skill"`

	// Days bounds how far back to look.
	Days int `json:"days,omitempty" jsonschema:"How many days back to include,default=30"`

	// Limit caps the number of records returned.
	Limit int `json:"limit,omitempty" jsonschema:"Maximum records to return,default=100"`
}

// HistoryRecordResult is one terminal resolution.
type HistoryRecordResult struct {
	Fingerprint string `json:"fingerprint"`
	SkillName   string `json:"skill_name,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	Outcome     string `json:"outcome"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	ResolvedAt  string `json:"resolved_at"`
}

// HistoryResult is the result of the reflect_history tool.
type HistoryResult struct {
	Records []HistoryRecordResult `json:"records"`
}

func (s *Server) handleHistory(ctx context.Context,
	req *mcp.CallToolRequest, args HistoryArgs) (*mcp.CallToolResult, HistoryResult, error) {

	window := defaultHistoryWindow
	if args.Days > 0 {
		window = time.Duration(args.Days) * 24 * time.Hour
	}
	since := time.Now().Add(-window)

	records, err := s.engine.History(ctx, args.Skill, since, args.Limit)
	if err != nil {
		return nil, HistoryResult{}, err
	}

	result := HistoryResult{
		Records: make([]HistoryRecordResult, len(records)),
	}
	for i, rec := range records {
		result.Records[i] = HistoryRecordResult{
			Fingerprint: rec.Fingerprint,
			SkillName:   rec.SkillName,
			Confidence:  rec.Confidence,
			Outcome:     string(rec.Outcome),
			ReviewedBy:  rec.ReviewedBy,
			ResolvedAt:  rec.AppliedAt.Format(time.RFC3339),
		}
	}

	return nil, result, nil
}
