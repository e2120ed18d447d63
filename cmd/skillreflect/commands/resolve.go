package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/ledger"
)

var (
	resolveOutcome  string
	resolveReviewer string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <fingerprint>",
	Short: "Resolve a pending entry to a terminal outcome",
	Long: `Transition one pending_review ledger entry to a terminal outcome.

Resolving to 'applied' folds the stored proposal into the target skill
document. Each pending entry can be resolved exactly once.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(
		&resolveOutcome, "outcome", string(ledger.OutcomeApplied),
		"Terminal outcome: applied, rejected_by_reviewer, "+
			"skipped_low_confidence, skipped_new_skill",
	)
	resolveCmd.Flags().StringVar(
		&resolveReviewer, "reviewer", "",
		"Reviewer identifier (default: $SKILLREFLECT_REVIEWER or OS user)",
	)

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	fingerprint := args[0]

	outcome := ledger.Outcome(resolveOutcome)
	if !outcome.Valid() || !outcome.IsTerminal() {
		return fmt.Errorf("outcome %q is not a terminal outcome",
			resolveOutcome)
	}

	pipeline, err := getPipeline(nil)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	entry, err := pipeline.Resolve(
		context.Background(), fingerprint, outcome,
		reviewerID(resolveReviewer),
	)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(map[string]any{
			"fingerprint": entry.Fingerprint,
			"outcome":     string(outcome),
			"skill_name":  entry.SkillName,
		})
	}

	fmt.Printf("Resolved %s as %s", fingerprint, outcome)
	if outcome == ledger.OutcomeApplied && entry.SkillName != "" {
		fmt.Printf(" (applied to skill %q)", entry.SkillName)
	}
	fmt.Println()

	return nil
}
