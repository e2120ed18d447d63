package signal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestProjectDir tests the project directory resolution for both mangled
// and unmangled project keys.
func TestProjectDir(t *testing.T) {
	reader := NewTranscriptReader("/home/user/.claude", 10)

	tests := []struct {
		name       string
		projectKey string
		want       string
	}{
		{
			name:       "already mangled",
			projectKey: "-Users-alice-code-myproject",
			want:       "/home/user/.claude/projects/-Users-alice-code-myproject",
		},
		{
			name:       "absolute path with slashes",
			projectKey: "/Users/alice/code/myproject",
			want:       "/home/user/.claude/projects/-Users-alice-code-myproject",
		},
		{
			name:       "path with dots",
			projectKey: "/Users/alice/github.com/repo",
			want:       "/home/user/.claude/projects/-Users-alice-github-com-repo",
		},
		{
			name:       "mangled with dots replaced",
			projectKey: "-Users-alice-github-com-repo",
			want:       "/home/user/.claude/projects/-Users-alice-github-com-repo",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := reader.projectDir(tc.projectKey)
			require.Equal(t, tc.want, got)
		})
	}
}

// TestProjectDirPathTraversal ensures that directory traversal attempts
// are sanitized.
func TestProjectDirPathTraversal(t *testing.T) {
	reader := NewTranscriptReader("/home/user/.claude", 10)

	tests := []struct {
		name       string
		projectKey string
	}{
		{
			name:       "dot-dot in path",
			projectKey: "/home/user/../../../etc/passwd",
		},
		{
			name:       "dot-dot in mangled key",
			projectKey: "-home-user-..-..-..-etc-passwd",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := reader.projectDir(tc.projectKey)
			base := filepath.Join("/home/user/.claude", "projects")

			// The result must stay under basePath/projects/.
			rel, err := filepath.Rel(base, dir)
			require.NoError(t, err)
			require.False(t,
				len(rel) >= 2 && rel[:2] == "..",
				"projectDir(%q) = %q escapes base %q",
				tc.projectKey, dir, base,
			)
		})
	}
}

// TestReadTranscript covers plain-string content, structured content
// blocks, malformed line skipping, and role attribution.
func TestReadTranscript(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	session := "sess-1"

	dir := filepath.Join(base, "projects", MangleProjectKey(project))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	lines := `{"type":"user","message":{"role":"user","content":"plain text turn"}}` + "\n" +
		`not json at all` + "\n" +
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"first block"},{"type":"tool_use","text":"ignored"},{"type":"text","text":"second block"}]}}` + "\n" +
		`{"type":"summary","summary":"skipped record"}` + "\n" +
		`{"type":"user","message":{"content":"role falls back to type"}}` + "\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, session+".jsonl"), []byte(lines), 0o644,
	))

	reader := NewTranscriptReader(base, 100)
	utterances, err := reader.ReadTranscript(project, session)
	require.NoError(t, err)

	require.Len(t, utterances, 3)

	require.Equal(t, "user", utterances[0].Role)
	require.Equal(t, "plain text turn", utterances[0].Text)
	require.Equal(t, 0, utterances[0].Turn)

	require.Equal(t, "assistant", utterances[1].Role)
	require.Equal(t, "first block\nsecond block", utterances[1].Text)

	require.Equal(t, "user", utterances[2].Role)
	require.Equal(t, "role falls back to type", utterances[2].Text)
	require.Equal(t, 2, utterances[2].Turn)
}

// TestReadTranscriptTailing verifies that only the most recent maxLines
// utterances are returned.
func TestReadTranscriptTailing(t *testing.T) {
	base := t.TempDir()
	project := "proj"
	session := "sess-tail"

	var texts []string
	for i := 0; i < 10; i++ {
		texts = append(texts, "turn number "+string(rune('a'+i)))
	}
	writeSessionFile(t, base, project, session, texts)

	reader := NewTranscriptReader(base, 3)
	utterances, err := reader.ReadTranscript(project, session)
	require.NoError(t, err)

	require.Len(t, utterances, 3)
	require.Equal(t, "turn number h", utterances[0].Text)
	require.Equal(t, "turn number j", utterances[2].Text)
}

// TestReadTranscriptMissing verifies the not-found error path.
func TestReadTranscriptMissing(t *testing.T) {
	reader := NewTranscriptReader(t.TempDir(), 10)

	_, err := reader.ReadTranscript("proj", "no-such-session")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no-such-session")
}

// TestListRecentSessions checks ordering and cutoff filtering.
func TestListRecentSessions(t *testing.T) {
	base := t.TempDir()
	project := "proj"

	writeSessionFile(t, base, project, "old", []string{"hello there"})
	writeSessionFile(t, base, project, "mid", []string{"hello there"})
	writeSessionFile(t, base, project, "new", []string{"hello there"})

	dir := filepath.Join(base, "projects", MangleProjectKey(project))
	now := time.Now()
	require.NoError(t, os.Chtimes(
		filepath.Join(dir, "old.jsonl"),
		now.Add(-48*time.Hour), now.Add(-48*time.Hour),
	))
	require.NoError(t, os.Chtimes(
		filepath.Join(dir, "mid.jsonl"),
		now.Add(-1*time.Hour), now.Add(-1*time.Hour),
	))
	require.NoError(t, os.Chtimes(
		filepath.Join(dir, "new.jsonl"), now, now,
	))

	reader := NewTranscriptReader(base, 10)

	all, err := reader.ListRecentSessions(project, time.Time{})
	require.NoError(t, err)
	require.Equal(t, []string{"new", "mid", "old"}, all)

	recent, err := reader.ListRecentSessions(
		project, now.Add(-2*time.Hour),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"new", "mid"}, recent)
}

// TestFindActiveSession returns the most recently modified session.
func TestFindActiveSession(t *testing.T) {
	base := t.TempDir()
	project := "proj"

	writeSessionFile(t, base, project, "older", []string{"hello there"})
	writeSessionFile(t, base, project, "newest", []string{"hello there"})

	dir := filepath.Join(base, "projects", MangleProjectKey(project))
	now := time.Now()
	require.NoError(t, os.Chtimes(
		filepath.Join(dir, "older.jsonl"),
		now.Add(-time.Hour), now.Add(-time.Hour),
	))
	require.NoError(t, os.Chtimes(
		filepath.Join(dir, "newest.jsonl"), now, now,
	))

	reader := NewTranscriptReader(base, 10)
	active, err := reader.FindActiveSession(project)
	require.NoError(t, err)
	require.Equal(t, "newest", active)

	_, err = reader.FindActiveSession("empty-project")
	require.Error(t, err)
}
