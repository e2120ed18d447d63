package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/gate"
	"github.com/roasbeef/skillreflect/internal/oracle"
	"github.com/roasbeef/skillreflect/internal/reflect"
	sig "github.com/roasbeef/skillreflect/internal/signal"
)

var (
	runSessionID   string
	runProjectKey  string
	runMode        string
	runSkill       string
	runDryRun      bool
	runAutoApprove bool
)

var runCmd = &cobra.Command{
	Use:   "run [session_id]",
	Short: "Run the reflection pipeline over a session",
	Long: `Scan a session transcript for correction signals, evaluate each new
signal through the model council, and resolve every reflection through the
confidence gate.

Modes:
  interactive   High and medium confidence reflections prompt for approval.
  auto_approve  High confidence reflections apply without prompting.
  dry_run       Decisions are computed and reported; nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(
		&runSessionID, "session", "",
		"Session ID to scan (default: $CLAUDE_SESSION_ID, else most recent)",
	)
	runCmd.Flags().StringVar(
		&runProjectKey, "project", "",
		"Project key under ~/.claude/projects (default: derived from cwd)",
	)
	runCmd.Flags().StringVar(
		&runMode, "mode", string(gate.ModeInteractive),
		"Run mode: interactive, auto_approve, dry_run",
	)
	runCmd.Flags().StringVar(
		&runSkill, "skill", "",
		"Only apply reflections targeting this skill",
	)
	runCmd.Flags().BoolVar(
		&runDryRun, "dry-run", false,
		"Report decisions without writing (same as --mode dry_run)",
	)
	runCmd.Flags().BoolVar(
		&runAutoApprove, "auto-approve", false,
		"Apply high confidence reflections without prompting "+
			"(same as --mode auto_approve)",
	)

	rootCmd.AddCommand(runCmd)
}

// resolveRunMode merges the --mode flag with the --dry-run and
// --auto-approve shorthands. The booleans win over the mode default but
// conflict with an explicitly set mode that disagrees.
func resolveRunMode(modeFlag string, modeSet, dryRun,
	autoApprove bool) (gate.Mode, error) {

	if dryRun && autoApprove {
		return "", fmt.Errorf(
			"--dry-run and --auto-approve are mutually exclusive",
		)
	}

	mode := gate.Mode(modeFlag)
	if !mode.Valid() {
		return "", fmt.Errorf("unknown mode %q", modeFlag)
	}

	switch {
	case dryRun:
		if modeSet && mode != gate.ModeDryRun {
			return "", fmt.Errorf(
				"--dry-run conflicts with --mode %s", mode,
			)
		}
		return gate.ModeDryRun, nil

	case autoApprove:
		if modeSet && mode != gate.ModeAutoApprove {
			return "", fmt.Errorf(
				"--auto-approve conflicts with --mode %s", mode,
			)
		}
		return gate.ModeAutoApprove, nil
	}

	return mode, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	mode, err := resolveRunMode(
		runMode, cmd.Flags().Changed("mode"), runDryRun, runAutoApprove,
	)
	if err != nil {
		return err
	}

	projectKey := runProjectKey
	if projectKey == "" {
		projectKey = defaultProjectKey()
	}

	sessionID := runSessionID
	if len(args) > 0 {
		if sessionID != "" && sessionID != args[0] {
			return fmt.Errorf("session given both as argument " +
				"and --session")
		}
		sessionID = args[0]
	}
	if sessionID == "" {
		sessionID = os.Getenv("CLAUDE_SESSION_ID")
	}
	if sessionID == "" {
		reader := sig.NewTranscriptReader("", 0)
		found, err := reader.FindActiveSession(projectKey)
		if err != nil {
			return fmt.Errorf("no session specified and none "+
				"found for project %s: %w", projectKey, err)
		}
		sessionID = found
	}

	var approver reflect.Approver
	if mode == gate.ModeInteractive {
		approver = &stdinApprover{
			in:  bufio.NewReader(os.Stdin),
			out: os.Stdout,
		}
	}

	pipeline, err := getPipeline(approver)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	summary, err := pipeline.Run(ctx, reflect.RunRequest{
		ProjectKey:  projectKey,
		SessionID:   sessionID,
		SkillFilter: runSkill,
		Mode:        mode,
	})
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return outputJSON(summary)
	default:
		printSummary(summary)
	}

	return nil
}

func printSummary(summary reflect.Summary) {
	if summary.DryRun {
		fmt.Println("Dry run: no ledger or skill writes performed.")
	}
	fmt.Printf("Signals detected:  %d\n", summary.Detected)
	fmt.Printf("Already resolved:  %d\n", summary.AlreadySeen)
	fmt.Printf("Proposed:          %d\n", summary.Proposed)
	fmt.Printf("Applied:           %d\n", summary.Applied)
	fmt.Printf("Pending review:    %d\n", summary.Pending)
	fmt.Printf("Skipped:           %d\n", summary.Skipped)
	fmt.Printf("Rejected:          %d\n", summary.Rejected)
	fmt.Printf("Deferred:          %d\n", summary.Deferred)
}

// stdinApprover prompts on the terminal for each reviewable reflection.
type stdinApprover struct {
	in  *bufio.Reader
	out *os.File
}

// Review implements reflect.Approver.
func (a *stdinApprover) Review(ctx context.Context, s sig.Signal,
	r *oracle.Reflection) (reflect.Verdict, error) {

	fmt.Fprintf(a.out, "\nReflection for skill %q (%s confidence)\n",
		r.Target, r.Confidence)
	fmt.Fprintf(a.out, "  Signal:    %s\n", s.RawText)
	fmt.Fprintf(a.out, "  Change:    %s\n", r.ChangeDescription)
	if r.Rationale != "" {
		fmt.Fprintf(a.out, "  Rationale: %s\n", r.Rationale)
	}

	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		fmt.Fprint(a.out, "Apply? [y]es / [n]o / [l]ater: ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			return "", err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return reflect.VerdictApprove, nil
		case "n", "no":
			return reflect.VerdictReject, nil
		case "l", "later", "":
			return reflect.VerdictLater, nil
		}
	}
}
