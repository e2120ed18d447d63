package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	historySkill string
	historyDays  int
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show terminal reflection outcomes",
	Long: `Show the audit history of terminal resolutions, most recent first.

Filter to one skill with --skill; bound the window with --days.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(
		&historySkill, "skill", "",
		"Only show history for this skill",
	)
	historyCmd.Flags().IntVar(
		&historyDays, "days", 30,
		"How many days back to include",
	)
	historyCmd.Flags().IntVar(
		&historyLimit, "limit", 100,
		"Maximum records to show",
	)

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	pipeline, err := getPipeline(nil)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	since := time.Now().Add(
		-time.Duration(historyDays) * 24 * time.Hour,
	)
	records, err := pipeline.History(
		context.Background(), historySkill, since, historyLimit,
	)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No history in the selected window.")
		return nil
	}

	for _, rec := range records {
		skill := rec.SkillName
		if skill == "" {
			skill = "(none)"
		}

		fmt.Printf("%s  %-22s %-10s %-24s %s\n",
			rec.AppliedAt.Format("2006-01-02 15:04"),
			string(rec.Outcome), rec.Confidence, skill,
			rec.Fingerprint[:12])
	}

	return nil
}
