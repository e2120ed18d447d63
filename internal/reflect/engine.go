package reflect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roasbeef/skillreflect/internal/gate"
	"github.com/roasbeef/skillreflect/internal/ledger"
	"github.com/roasbeef/skillreflect/internal/notify"
	"github.com/roasbeef/skillreflect/internal/oracle"
	"github.com/roasbeef/skillreflect/internal/signal"
	"github.com/roasbeef/skillreflect/internal/skilldoc"
)

// Verdict is a reviewer's answer for one reflection.
type Verdict string

const (
	// VerdictApprove applies the reflection.
	VerdictApprove Verdict = "approve"

	// VerdictReject records a terminal rejection.
	VerdictReject Verdict = "reject"

	// VerdictLater parks the reflection as pending_review.
	VerdictLater Verdict = "later"
)

// Approver answers review prompts in interactive mode.
type Approver interface {
	// Review presents one reflection and returns the reviewer's
	// verdict. An error aborts review for this signal; the signal is
	// deferred to a later run.
	Review(ctx context.Context, sig signal.Signal,
		r *oracle.Reflection) (Verdict, error)
}

// EngineConfig wires the pipeline components together.
type EngineConfig struct {
	// Ledger is the deduplication ledger and audit history.
	Ledger *ledger.Store

	// Detector extracts signals from transcripts.
	Detector *signal.Detector

	// Analyzer is the consensus council.
	Analyzer oracle.Analyzer

	// Updater folds learnings into skill documents.
	Updater *skilldoc.Updater

	// Notifier publishes best-effort run events. Nil means no
	// notifications.
	Notifier notify.Sink

	// Approver answers interactive review prompts. Required only for
	// interactive mode.
	Approver Approver

	// ReviewerID is recorded as the resolving actor for interactive
	// decisions.
	ReviewerID string

	// Logger is the parent logger.
	Logger *slog.Logger
}

// Engine runs the reflection pipeline.
type Engine struct {
	ledger     *ledger.Store
	detector   *signal.Detector
	analyzer   oracle.Analyzer
	updater    *skilldoc.Updater
	notifier   notify.Sink
	approver   Approver
	reviewerID string
	log        *slog.Logger
}

// NewEngine creates an engine from wired components.
func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NoopSink{}
	}

	return &Engine{
		ledger:     cfg.Ledger,
		detector:   cfg.Detector,
		analyzer:   cfg.Analyzer,
		updater:    cfg.Updater,
		notifier:   notifier,
		approver:   cfg.Approver,
		reviewerID: cfg.ReviewerID,
		log:        log.With("component", "engine"),
	}
}

// resolution is the single way out of the gate for a non-deferred signal.
// Every branch of processSignal that does not defer builds one of these,
// and exactly one recordResolution call consumes it; no branch can write
// to the skill store or return without the ledger write.
type resolution struct {
	outcome    ledger.Outcome
	reviewedBy string

	// apply requests the skill document mutation after a winning
	// ledger claim.
	apply bool
}

// Run executes one pipeline run and returns its summary. Per-signal
// failures never abort the batch; each signal's ledger write lands
// immediately after its own resolution, so an interrupted run leaves
// already-resolved signals recorded and only unresolved ones eligible for
// re-evaluation.
func (e *Engine) Run(ctx context.Context, req RunRequest) (Summary, error) {
	if !req.Mode.Valid() {
		return Summary{}, fmt.Errorf("unknown run mode %q", req.Mode)
	}
	if req.Mode == gate.ModeInteractive && e.approver == nil {
		return Summary{}, errors.New(
			"interactive mode requires an approver")
	}

	summary := Summary{
		RunID:  uuid.NewString(),
		DryRun: req.Mode == gate.ModeDryRun,
	}

	log := e.log.With("run_id", summary.RunID,
		"session_id", req.SessionID, "mode", string(req.Mode))
	log.Info("starting reflection run")

	signals := e.detector.Detect(req.ProjectKey, req.SessionID)
	summary.Detected = len(signals)

	skillNames, err := e.updater.Store().List()
	if err != nil {
		return summary, fmt.Errorf("list skills: %w", err)
	}
	sctx := oracle.SessionContext{
		ProjectKey: req.ProjectKey,
		SessionID:  req.SessionID,
		SkillNames: skillNames,
	}

	// Skills claimed by an apply earlier in this run. A second
	// reflection hitting the same skill in one batch is a conflict a
	// human has to untangle, so it parks instead of stacking.
	appliedSkills := make(map[string]struct{})

	for _, sig := range signals {
		if ctx.Err() != nil {
			log.Warn("run interrupted",
				"resolved", summary.Applied+summary.Skipped+
					summary.Pending+summary.Rejected)
			return summary, ctx.Err()
		}

		e.processSignal(ctx, req, sig, sctx, appliedSkills, &summary,
			log)
	}

	e.notifier.Publish(notify.SubjectRun, notify.Event{
		RunID:     summary.RunID,
		SessionID: req.SessionID,
		Counts:    summary.counts(),
	})

	log.Info("reflection run complete",
		"detected", summary.Detected,
		"already_seen", summary.AlreadySeen,
		"applied", summary.Applied,
		"deferred", summary.Deferred,
		"skipped", summary.Skipped,
		"pending", summary.Pending,
		"rejected", summary.Rejected)

	return summary, nil
}

// processSignal takes one signal from detection through resolution.
// Deferral (council failure, filter miss, reviewer error) returns without
// any ledger write so a later run retries; every other exit funnels
// through recordResolution.
func (e *Engine) processSignal(ctx context.Context, req RunRequest,
	sig signal.Signal, sctx oracle.SessionContext,
	appliedSkills map[string]struct{}, summary *Summary,
	log *slog.Logger) {

	isNew, err := e.ledger.IsNew(ctx, sig.Fingerprint)
	if err != nil {
		log.Error("ledger lookup failed, deferring signal",
			"fingerprint", sig.Fingerprint, "err", err)
		summary.Deferred++
		return
	}
	if !isNew {
		summary.AlreadySeen++
		return
	}

	refl, err := e.analyzer.Analyze(ctx, sig, sctx)
	if err != nil {
		log.Warn("council deferred signal",
			"fingerprint", sig.Fingerprint, "err", err)
		summary.Deferred++
		return
	}
	summary.Proposed++

	// A skill filter leaves other targets untouched for a later,
	// unfiltered run.
	if req.SkillFilter != "" && refl.Target != req.SkillFilter {
		log.Debug("skill filter deferred signal",
			"fingerprint", sig.Fingerprint,
			"target", refl.Target)
		summary.Deferred++
		return
	}

	decision, err := gate.Decide(refl, req.Mode)
	if err != nil {
		log.Error("gate rejected reflection, deferring",
			"fingerprint", sig.Fingerprint, "err", err)
		summary.Deferred++
		return
	}

	// Dry run reports the would-be outcome and stops before any
	// persistence; a later real run reprocesses the signal.
	if req.Mode == gate.ModeDryRun {
		e.countDecision(decision.Action, summary)
		log.Info("dry run decision",
			"fingerprint", sig.Fingerprint,
			"target", refl.Target,
			"confidence", string(refl.Confidence),
			"action", string(decision.Action))
		return
	}

	res, ok := e.resolveDecision(
		ctx, sig, refl, decision, appliedSkills, summary, log,
	)
	if !ok {
		return
	}

	e.recordResolution(ctx, sig, refl, res, appliedSkills, summary, log)
}

// resolveDecision turns a gate decision into a resolution, consulting the
// approver when asked. ok is false when the signal is deferred.
func (e *Engine) resolveDecision(ctx context.Context, sig signal.Signal,
	refl *oracle.Reflection, decision gate.Decision,
	appliedSkills map[string]struct{}, summary *Summary,
	log *slog.Logger) (resolution, bool) {

	switch decision.Action {
	case gate.ActionApply:
		return e.applyResolution(
			refl, decision.ReviewedBy, appliedSkills, log,
		), true

	case gate.ActionAskReviewer:
		verdict, err := e.approver.Review(ctx, sig, refl)
		if err != nil {
			log.Warn("review aborted, deferring signal",
				"fingerprint", sig.Fingerprint, "err", err)
			summary.Deferred++
			return resolution{}, false
		}

		switch verdict {
		case VerdictApprove:
			return e.applyResolution(
				refl, e.reviewerID, appliedSkills, log,
			), true
		case VerdictReject:
			return resolution{
				outcome:    ledger.OutcomeRejectedByReviewer,
				reviewedBy: e.reviewerID,
			}, true
		default:
			return resolution{
				outcome: ledger.OutcomePendingReview,
			}, true
		}

	case gate.ActionSkipNewSkill:
		return resolution{
			outcome:    decision.Outcome,
			reviewedBy: decision.ReviewedBy,
		}, true

	default:
		return resolution{
			outcome:    decision.Outcome,
			reviewedBy: decision.ReviewedBy,
		}, true
	}
}

// applyResolution validates the target before committing to an applied
// outcome. A missing target parks the reflection for an operator instead,
// as does a target another reflection already updated this run: two
// conflicting learnings landing in one skill in one batch is an ambiguity
// only a human can order.
func (e *Engine) applyResolution(refl *oracle.Reflection,
	reviewedBy string, appliedSkills map[string]struct{},
	log *slog.Logger) resolution {

	if _, ok := appliedSkills[refl.Target]; ok {
		log.Warn("skill already updated this run, parking "+
			"conflicting reflection",
			"target", refl.Target,
			"fingerprint", refl.SignalFingerprint)
		return resolution{outcome: ledger.OutcomePendingReview}
	}

	if !e.updater.Store().Exists(refl.Target) {
		log.Warn("target skill not found, parking for review",
			"target", refl.Target,
			"fingerprint", refl.SignalFingerprint)
		return resolution{outcome: ledger.OutcomePendingReview}
	}

	return resolution{
		outcome:    ledger.OutcomeApplied,
		reviewedBy: reviewedBy,
		apply:      true,
	}
}

// recordResolution writes the ledger entry for a resolved signal and, for
// a winning applied claim, performs the skill document mutation. The
// ledger claim comes first: when concurrent runs race on one fingerprint
// the atomic insert decides the winner, and only the winner touches the
// file.
func (e *Engine) recordResolution(ctx context.Context, sig signal.Signal,
	refl *oracle.Reflection, res resolution,
	appliedSkills map[string]struct{}, summary *Summary,
	log *slog.Logger) {

	_, created, err := e.ledger.Record(ctx, ledger.RecordParams{
		Fingerprint:       sig.Fingerprint,
		SessionID:         sig.SessionID,
		SignalKind:        string(sig.Kind),
		SkillName:         skillNameFor(refl),
		RawText:           sig.RawText,
		Confidence:        string(refl.Confidence),
		ChangeDescription: refl.ChangeDescription,
		Rationale:         refl.Rationale,
		Outcome:           res.outcome,
		ReviewedBy:        res.reviewedBy,
	})

	var conflict *ledger.TerminalConflictError
	if errors.As(err, &conflict) {
		// A concurrent run resolved this fingerprint differently.
		// Trust the existing entry and discard ours.
		log.Warn("conflicting terminal state, trusting existing",
			"fingerprint", sig.Fingerprint,
			"existing", string(conflict.Existing),
			"attempted", string(conflict.Attempted))
		summary.AlreadySeen++
		return
	}
	if err != nil {
		log.Error("ledger record failed",
			"fingerprint", sig.Fingerprint, "err", err)
		summary.Deferred++
		return
	}

	if !created {
		summary.AlreadySeen++
		return
	}

	switch res.outcome {
	case ledger.OutcomeApplied:
		// This run won the claim; it alone mutates the file, and
		// the skill is closed to further applies this run.
		appliedSkills[refl.Target] = struct{}{}
		if res.apply {
			e.applyToSkill(sig, refl, summary, log)
		}
	case ledger.OutcomePendingReview:
		summary.Pending++
	case ledger.OutcomeRejectedByReviewer:
		summary.Rejected++
		e.publishOutcome(notify.SubjectSkipped, sig, refl, res.outcome)
	default:
		summary.Skipped++
		e.publishOutcome(notify.SubjectSkipped, sig, refl, res.outcome)
	}
}

// applyToSkill folds the reflection into its target document after a
// winning ledger claim.
func (e *Engine) applyToSkill(sig signal.Signal, refl *oracle.Reflection,
	summary *Summary, log *slog.Logger) {

	learning := skilldoc.Learning{
		Timestamp:   time.Now().UTC(),
		SessionID:   sig.SessionID,
		Fingerprint: sig.Fingerprint,
		Confidence:  string(refl.Confidence),
		Signal:      string(sig.Kind),
		Change:      refl.ChangeDescription,
		Rationale:   refl.Rationale,
	}

	doc, changed, err := e.updater.Apply(refl.Target, learning)
	if err != nil {
		// The ledger already says applied; the file write failed.
		// Surface loudly so an operator can reconcile.
		log.Error("skill update failed after ledger claim",
			"target", refl.Target,
			"fingerprint", sig.Fingerprint, "err", err)
		return
	}

	summary.Applied++
	if changed {
		log.Info("commit payload ready",
			"skill", doc.Name,
			"message", skilldoc.CommitMessage(doc, learning))
	}

	e.publishOutcome(notify.SubjectApplied, sig, refl,
		ledger.OutcomeApplied)
}

// publishOutcome emits a best-effort event for a terminal resolution.
func (e *Engine) publishOutcome(subject string, sig signal.Signal,
	refl *oracle.Reflection, outcome ledger.Outcome) {

	e.notifier.Publish(subject, notify.Event{
		SessionID:   sig.SessionID,
		SkillName:   skillNameFor(refl),
		Fingerprint: sig.Fingerprint,
		Outcome:     string(outcome),
	})
}

// countDecision tallies a dry-run decision into the summary.
func (e *Engine) countDecision(action gate.Action, summary *Summary) {
	switch action {
	case gate.ActionApply:
		summary.Applied++
	case gate.ActionAskReviewer, gate.ActionPark:
		summary.Pending++
	default:
		summary.Skipped++
	}
}

// skillNameFor returns the ledgered skill name for a reflection; NEW_SKILL
// proposals have no real target.
func skillNameFor(refl *oracle.Reflection) string {
	if refl.IsNewSkill() {
		return ""
	}
	return refl.Target
}

// Resolve transitions one pending_review entry to a terminal outcome on
// behalf of a human reviewer. Resolving to applied also performs the skill
// document mutation using the proposal stored with the entry.
func (e *Engine) Resolve(ctx context.Context, fingerprint string,
	outcome ledger.Outcome, reviewedBy string) (ledger.Entry, error) {

	if outcome == ledger.OutcomeApplied {
		entry, err := e.ledger.Get(ctx, fingerprint)
		if err != nil {
			return ledger.Entry{}, err
		}
		if entry.SkillName == "" {
			return ledger.Entry{}, fmt.Errorf(
				"entry %s has no target skill", fingerprint)
		}
		if !e.updater.Store().Exists(entry.SkillName) {
			return ledger.Entry{}, &skilldoc.TargetNotFoundError{
				Name: entry.SkillName,
			}
		}
	}

	entry, err := e.ledger.ResolvePending(ctx, fingerprint, outcome,
		reviewedBy)
	if err != nil {
		return ledger.Entry{}, err
	}

	if outcome != ledger.OutcomeApplied {
		e.notifier.Publish(notify.SubjectSkipped, notify.Event{
			SessionID:   entry.SessionID,
			SkillName:   entry.SkillName,
			Fingerprint: entry.Fingerprint,
			Outcome:     string(outcome),
		})
		return entry, nil
	}

	learning := skilldoc.Learning{
		Timestamp:   time.Now().UTC(),
		SessionID:   entry.SessionID,
		Fingerprint: entry.Fingerprint,
		Confidence:  entry.Confidence,
		Signal:      entry.SignalKind,
		Change:      entry.ChangeDescription,
		Rationale:   entry.Rationale,
	}

	doc, changed, err := e.updater.Apply(entry.SkillName, learning)
	if err != nil {
		e.log.Error("skill update failed after resolution",
			"skill", entry.SkillName,
			"fingerprint", fingerprint, "err", err)
		return entry, err
	}
	if changed {
		e.log.Info("commit payload ready",
			"skill", doc.Name,
			"message", skilldoc.CommitMessage(doc, learning))
	}

	e.notifier.Publish(notify.SubjectApplied, notify.Event{
		SessionID:   entry.SessionID,
		SkillName:   entry.SkillName,
		Fingerprint: entry.Fingerprint,
		Outcome:     string(ledger.OutcomeApplied),
	})

	return entry, nil
}

// Pending lists entries awaiting review.
func (e *Engine) Pending(ctx context.Context) ([]ledger.Entry, error) {
	return e.ledger.ListPending(ctx)
}

// History returns terminal resolutions, optionally filtered by skill.
func (e *Engine) History(ctx context.Context, skillName string,
	since time.Time, limit int) ([]ledger.HistoryRecord, error) {

	if skillName != "" {
		return e.ledger.HistoryBySkill(ctx, skillName, since)
	}
	return e.ledger.RecentHistory(ctx, since, limit)
}
