package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/roasbeef/skillreflect/internal/reflect"
)

// getPipeline builds a fully wired pipeline from flags and environment.
// The caller owns the returned pipeline and must Close it.
func getPipeline(approver reflect.Approver) (*reflect.Pipeline, error) {
	cfg := reflect.DefaultConfig()
	cfg.DBPath = dbPath
	cfg.SkillsDir = skillsDir
	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.BaseURL = os.Getenv("SKILLREFLECT_BASE_URL")
	cfg.NatsURL = os.Getenv("SKILLREFLECT_NATS_URL")
	cfg.ReviewerID = reviewerID("")

	if models := os.Getenv("SKILLREFLECT_MODELS"); models != "" {
		cfg.Models = splitList(models)
	}

	return reflect.BuildPipeline(cfg, approver, log)
}

// reviewerID resolves the reviewer identity: explicit flag, then env, then
// the OS username.
func reviewerID(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("SKILLREFLECT_REVIEWER"); env != "" {
		return env
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "reviewer"
}

// defaultProjectKey derives the transcript project key from the working
// directory. The transcript reader mangles raw paths into directory names
// itself.
func defaultProjectKey() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

// getClaudeDir returns the path to the ~/.claude directory.
func getClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

// splitList splits a comma-separated flag value, trimming whitespace.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// formatAge renders a duration since t compactly.
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// outputJSON outputs data as JSON.
func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
