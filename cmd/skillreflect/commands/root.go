package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/build"
)

var (
	// dbPath is the path to the SQLite ledger database.
	dbPath string

	// skillsDir is the directory holding skill documents.
	skillsDir string

	// outputFormat controls output format (text, json).
	outputFormat string

	// debugFlag lowers the log level to debug.
	debugFlag bool

	// quietFlag drops the console log stream, for hook-triggered runs.
	quietFlag bool
)

// log is the process logger, assembled in the persistent pre-run.
var log = slog.Default()

// logCleanup flushes the file log rotator on exit.
var logCleanup = func() {}

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "skillreflect",
	Short: "Reflection engine for Claude Code skills",
	Long: `Skillreflect scans finished session transcripts for corrections and
decisions, evaluates them through a multi-model council, and folds accepted
learnings into versioned skill documents.

Every evaluated signal is recorded in a deduplication ledger, so re-running
over the same session never re-proposes a resolved signal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Pull settings from a .env file when present; real env vars
		// win over file values.
		_ = godotenv.Load()

		logger, cleanup, err := build.NewLogger(build.LoggerConfig{
			LogDir: defaultLogDir(),
			Debug:  debugFlag,
			Quiet:  quietFlag,
		})
		if err != nil {
			return err
		}
		log = logger
		logCleanup = cleanup

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logCleanup()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "",
		"Path to SQLite database (default: ~/.skillreflect/skillreflect.db)",
	)
	rootCmd.PersistentFlags().StringVar(
		&skillsDir, "skills-dir", "",
		"Skill documents directory (default: ~/.claude/skills)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debugFlag, "debug", false,
		"Enable debug logging",
	)
	rootCmd.PersistentFlags().BoolVar(
		&quietFlag, "quiet", false,
		"Log only to file, not the console",
	)
}

// defaultLogDir returns the rotating log directory.
func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".skillreflect", "logs")
}
