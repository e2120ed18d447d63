package skilldoc

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSkill creates dir/<name>/SKILL.md with the given content.
func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()

	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644,
	))
}

func newTestUpdater(t *testing.T, strategy MergeStrategy) *Updater {
	t.Helper()

	store := NewStore(t.TempDir())
	return NewUpdater(store, strategy, slog.Default())
}

// TestStoreListAndExists covers skill discovery on disk.
func TestStoreListAndExists(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "beta-skill", "# Beta\n")
	writeSkill(t, dir, "alpha-skill", "# Alpha\n")

	// A directory without SKILL.md is not a skill.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "junk"), 0o755))

	store := NewStore(dir)

	names, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha-skill", "beta-skill"}, names)

	require.True(t, store.Exists("alpha-skill"))
	require.False(t, store.Exists("junk"))
	require.False(t, store.Exists("missing"))
}

// TestStoreListMissingDir treats an absent skills directory as empty.
func TestStoreListMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"))

	names, err := store.List()
	require.NoError(t, err)
	require.Empty(t, names)
}

// TestStoreLoadMissing surfaces the typed not-found error.
func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("missing")

	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "missing", notFound.Name)
}

// TestUpdaterApply folds a new learning in and bumps the metadata.
func TestUpdaterApply(t *testing.T) {
	updater := newTestUpdater(t, StrategyAuto)
	writeSkill(t, updater.Store().Dir(), "api-conventions", sampleDoc)

	fp := strings.Repeat("4", 64)
	doc, changed, err := updater.Apply("api-conventions", sampleLearning(fp))
	require.NoError(t, err)
	require.True(t, changed)

	require.Equal(t, 4, doc.Meta.Version)
	require.Equal(t, 2, doc.Meta.ReflectionCount)
	require.Equal(t, "2026-08-30", doc.Meta.LastReflection)

	// The write is durable, not just in memory.
	reloaded, err := updater.Store().Load("api-conventions")
	require.NoError(t, err)
	require.True(t, reloaded.ContainsFingerprint(fp))
	require.Equal(t, 4, reloaded.Meta.Version)
}

// TestUpdaterApplyDuplicateAuto keeps the existing entry untouched.
func TestUpdaterApplyDuplicateAuto(t *testing.T) {
	updater := newTestUpdater(t, StrategyAuto)
	writeSkill(t, updater.Store().Dir(), "api-conventions", sampleDoc)

	l := sampleLearning(sampleFingerprint)
	doc, changed, err := updater.Apply("api-conventions", l)
	require.NoError(t, err)
	require.False(t, changed)

	// Metadata stays where it was.
	require.Equal(t, 3, doc.Meta.Version)
	require.Equal(t, 1, doc.Meta.ReflectionCount)

	// No save happened: the file on disk is untouched.
	raw, err := os.ReadFile(updater.Store().Path("api-conventions"))
	require.NoError(t, err)
	require.Equal(t, sampleDoc, string(raw))
}

// TestUpdaterApplyDuplicateOurs rewrites the colliding entry and bumps
// only the version.
func TestUpdaterApplyDuplicateOurs(t *testing.T) {
	updater := newTestUpdater(t, StrategyOurs)
	writeSkill(t, updater.Store().Dir(), "api-conventions", sampleDoc)

	l := sampleLearning(sampleFingerprint)
	l.Change = "Use HTTPS and pin the CA bundle."

	doc, changed, err := updater.Apply("api-conventions", l)
	require.NoError(t, err)
	require.True(t, changed)

	require.Equal(t, 4, doc.Meta.Version)
	require.Equal(t, 1, doc.Meta.ReflectionCount)

	learnings := doc.Learnings()
	require.Len(t, learnings, 1)
	require.Equal(t, "Use HTTPS and pin the CA bundle.",
		learnings[0].Change)
}

// TestUpdaterApplyDuplicateManual refuses to pick a side.
func TestUpdaterApplyDuplicateManual(t *testing.T) {
	updater := newTestUpdater(t, StrategyManual)
	writeSkill(t, updater.Store().Dir(), "api-conventions", sampleDoc)

	_, _, err := updater.Apply(
		"api-conventions", sampleLearning(sampleFingerprint),
	)
	require.ErrorIs(t, err, ErrManualMergeRequired)
}

// TestUpdaterApplyMissingSkill propagates the typed not-found error so the
// engine can park instead of failing.
func TestUpdaterApplyMissingSkill(t *testing.T) {
	updater := newTestUpdater(t, StrategyAuto)

	_, _, err := updater.Apply(
		"missing", sampleLearning(sampleFingerprint),
	)

	var notFound *TargetNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// TestParseStrategy validates the merge strategy names.
func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"theirs", "ours", "auto", "manual"} {
		got, err := ParseStrategy(s)
		require.NoError(t, err)
		require.Equal(t, MergeStrategy(s), got)
	}

	_, err := ParseStrategy("recursive")
	require.Error(t, err)
}

// TestCommitMessage pins the payload shape handed to notification
// consumers.
func TestCommitMessage(t *testing.T) {
	doc, err := Parse("api-conventions", "", []byte(sampleDoc))
	require.NoError(t, err)

	l := sampleLearning(sampleFingerprint)
	msg := CommitMessage(doc, l)

	require.True(t, strings.HasPrefix(msg,
		"skill(api-conventions): fold learning "+sampleFingerprint[:12],
	))
	require.Contains(t, msg, "Retry idempotent calls up to three times.")
	require.Contains(t, msg, "Fingerprint: "+sampleFingerprint)
}
