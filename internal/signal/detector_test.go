package signal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSessionFile writes a transcript of user utterances for a session
// under the reader's project layout.
func writeSessionFile(
	t *testing.T, base, projectKey, sessionID string, utterances []string,
) {
	t.Helper()

	dir := filepath.Join(base, "projects", MangleProjectKey(projectKey))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var lines []byte
	for _, text := range utterances {
		record := map[string]any{
			"type": "user",
			"message": map[string]any{
				"role":    "user",
				"content": text,
			},
		}
		line, err := json.Marshal(record)
		require.NoError(t, err)
		lines = append(lines, line...)
		lines = append(lines, '\n')
	}

	path := filepath.Join(dir, sessionID+".jsonl")
	require.NoError(t, os.WriteFile(path, lines, 0o644))
}

func newTestDetector(t *testing.T, base string) *Detector {
	t.Helper()

	reader := NewTranscriptReader(base, 100)
	return NewDetector(DefaultDetectorConfig(), reader, nil)
}

// TestDetectCorrections verifies correction extraction and kind
// classification from a single transcript.
func TestDetectCorrections(t *testing.T) {
	base := t.TempDir()
	project := "/Users/alice/code/myproject"
	session := "sess-corrections"

	writeSessionFile(t, base, project, session, []string{
		"Always use HTTPS for API calls, not HTTP.",
		"Can you add a retry here?",
		"Actually, the config lives under internal/build now.",
		"We decided to ship the worker pool behind a flag.",
	})

	detector := newTestDetector(t, base)
	signals := detector.Detect(project, session)

	require.Len(t, signals, 3)

	byText := make(map[string]Signal)
	for _, s := range signals {
		byText[s.RawText] = s
		require.Equal(t, session, s.SessionID)
		require.Len(t, s.Fingerprint, 64)
	}

	require.Equal(t, KindExplicitCorrection,
		byText["Always use HTTPS for API calls, not HTTP."].Kind,
	)
	require.Equal(t, KindExplicitCorrection,
		byText["Actually, the config lives under internal/build now."].Kind,
	)
	require.Equal(t, KindKeyDecision,
		byText["We decided to ship the worker pool behind a flag."].Kind,
	)
}

// TestDetectAssistantIgnored checks that only user utterances produce
// signals.
func TestDetectAssistantIgnored(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	session := "sess-roles"

	dir := filepath.Join(base, "projects", MangleProjectKey(project))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	lines := `{"type":"assistant","message":{"role":"assistant",` +
		`"content":"Never use raw SQL strings in handlers."}}` + "\n" +
		`{"type":"user","message":{"role":"user",` +
		`"content":"Never use raw SQL strings in handlers."}}` + "\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, session+".jsonl"), []byte(lines), 0o644,
	))

	detector := newTestDetector(t, base)
	signals := detector.Detect(project, session)

	require.Len(t, signals, 1)
	require.Equal(t, KindExplicitCorrection, signals[0].Kind)
}

// TestDetectDedupWithinRun verifies that repeating the same correction in
// one session yields a single signal.
func TestDetectDedupWithinRun(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	session := "sess-dedup"

	writeSessionFile(t, base, project, session, []string{
		"Never commit generated files to the repo.",
		"Never commit generated files to the repo.",
		"NEVER commit generated files to the repo!",
	})

	detector := newTestDetector(t, base)
	signals := detector.Detect(project, session)

	require.Len(t, signals, 1)
}

// TestDetectShortMatchesFiltered verifies the minimum-length filter on
// normalized text.
func TestDetectShortMatchesFiltered(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	session := "sess-short"

	writeSessionFile(t, base, project, session, []string{
		// Normalizes to "never do" which is below the length floor.
		"Never do.",
	})

	detector := newTestDetector(t, base)
	require.Empty(t, detector.Detect(project, session))
}

// TestDetectRepetition verifies that a phrase repeated across enough
// recent sessions surfaces as a repeated pattern signal.
func TestDetectRepetition(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	phrase := "check the database connection pool settings before deploying anything"

	// Two past sessions plus the current one carry the same phrase.
	writeSessionFile(t, base, project, "past-1", []string{phrase})
	writeSessionFile(t, base, project, "past-2", []string{phrase})
	writeSessionFile(t, base, project, "current", []string{
		phrase,
		// Repeating within the session must not inflate the count.
		phrase + " again",
	})

	detector := newTestDetector(t, base)
	signals := detector.Detect(project, "current")

	require.Len(t, signals, 1)
	require.Equal(t, KindRepeatedPattern, signals[0].Kind)
	require.Equal(t, phrase, signals[0].RawText)
}

// TestDetectRepetitionBelowThreshold checks that two occurrences stay
// silent under the default threshold.
func TestDetectRepetitionBelowThreshold(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	phrase := "check the database connection pool settings before deploying anything"

	writeSessionFile(t, base, project, "past-1", []string{phrase})
	writeSessionFile(t, base, project, "current", []string{phrase})

	detector := newTestDetector(t, base)
	require.Empty(t, detector.Detect(project, "current"))
}

// TestDetectMissingTranscript confirms detection degrades to an empty
// result instead of failing the run.
func TestDetectMissingTranscript(t *testing.T) {
	detector := newTestDetector(t, t.TempDir())
	require.Empty(t, detector.Detect("proj", "no-such-session"))
}
