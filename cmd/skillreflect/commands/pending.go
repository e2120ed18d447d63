package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List ledger entries awaiting review",
	Long: `List every reflection parked as pending_review, oldest first.

Resolve entries with 'skillreflect resolve <fingerprint>'.`,
	RunE: runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	pipeline, err := getPipeline(nil)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	entries, err := pipeline.Pending(context.Background())
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No entries pending review.")
		return nil
	}

	fmt.Printf("%d entries pending review:\n\n", len(entries))
	for _, entry := range entries {
		skill := entry.SkillName
		if skill == "" {
			skill = "(none)"
		}

		fmt.Printf("  %s\n", entry.Fingerprint)
		fmt.Printf("    Skill:      %s\n", skill)
		fmt.Printf("    Kind:       %s\n", entry.SignalKind)
		if entry.Confidence != "" {
			fmt.Printf("    Confidence: %s\n", entry.Confidence)
		}
		fmt.Printf("    Signal:     %s\n", entry.RawText)
		if entry.ChangeDescription != "" {
			fmt.Printf("    Change:     %s\n",
				entry.ChangeDescription)
		}
		fmt.Printf("    Age:        %s\n\n", formatAge(entry.CreatedAt))
	}

	return nil
}
