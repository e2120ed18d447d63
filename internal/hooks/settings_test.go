package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// existingSettings is a settings.json with unrelated keys and a foreign
// hook that must survive install and uninstall untouched.
const existingSettings = `{
  "model": "opus",
  "env": {"FOO": "bar"},
  "hooks": {
    "Stop": [
      {
        "matcher": "",
        "hooks": [
          {"type": "command", "command": "/usr/local/bin/other-tool.sh", "timeout": 30}
        ]
      }
    ],
    "PreToolUse": [
      {
        "matcher": "Bash",
        "hooks": [
          {"type": "command", "command": "/usr/local/bin/audit.sh"}
        ]
      }
    ]
  }
}`

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "settings.json"), []byte(content), 0o644,
	))
}

// TestLoadSettingsMissingFile starts from an empty settings object.
func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, settings.Hooks)
	require.False(t, IsInstalled(settings))
}

// TestInstallHooks appends the Stop hook next to existing entries.
func TestInstallHooks(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, existingSettings)

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	require.False(t, IsInstalled(settings))

	InstallHooks(settings)
	require.True(t, IsInstalled(settings))

	// The foreign Stop hook keeps its slot.
	stop := settings.Hooks["Stop"]
	require.Len(t, stop, 2)
	require.Equal(t, "/usr/local/bin/other-tool.sh",
		stop[0].Hooks[0].Command)
	require.True(t, isReflectHook(stop[1]))
	require.Equal(t, 600, stop[1].Hooks[0].Timeout)

	// Installing twice does not duplicate.
	InstallHooks(settings)
	require.Len(t, settings.Hooks["Stop"], 2)

	require.Equal(t, []string{"Stop"}, GetInstalledHookEvents(settings))
}

// TestSaveSettingsPreservesUnknownKeys round-trips keys this tool does
// not understand.
func TestSaveSettingsPreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, existingSettings)

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	InstallHooks(settings)
	require.NoError(t, SaveSettings(dir, settings))

	raw, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.Equal(t, "opus", parsed["model"])
	require.Equal(t, map[string]any{"FOO": "bar"}, parsed["env"])

	// Reload and verify both hooks survived the write.
	reloaded, err := LoadSettings(dir)
	require.NoError(t, err)
	require.True(t, IsInstalled(reloaded))
	require.Len(t, reloaded.Hooks["Stop"], 2)
	require.Len(t, reloaded.Hooks["PreToolUse"], 1)
	require.Equal(t, "Bash", reloaded.Hooks["PreToolUse"][0].Matcher)
}

// TestUninstallHooks removes only reflect entries.
func TestUninstallHooks(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, existingSettings)

	settings, err := LoadSettings(dir)
	require.NoError(t, err)
	InstallHooks(settings)
	require.NoError(t, SaveSettings(dir, settings))

	settings, err = LoadSettings(dir)
	require.NoError(t, err)
	UninstallHooks(settings)
	require.False(t, IsInstalled(settings))

	// The foreign hooks survive.
	require.Len(t, settings.Hooks["Stop"], 1)
	require.Equal(t, "/usr/local/bin/other-tool.sh",
		settings.Hooks["Stop"][0].Hooks[0].Command)
	require.Len(t, settings.Hooks["PreToolUse"], 1)
}

// TestUninstallHooksDropsEmptyEvents deletes an event key once its last
// entry is a reflect hook.
func TestUninstallHooksDropsEmptyEvents(t *testing.T) {
	settings := &ClaudeSettings{Hooks: map[string][]HookEntry{}}
	InstallHooks(settings)
	require.True(t, IsInstalled(settings))

	UninstallHooks(settings)
	require.NotContains(t, settings.Hooks, "Stop")
}

// TestScripts covers the embedded hook script lookup.
func TestScripts(t *testing.T) {
	script := GetScript("reflect_stop")
	require.Contains(t, script, "skillreflect run")
	require.Contains(t, script, "auto_approve")

	require.Empty(t, GetScript("unknown"))

	all := AllScripts()
	require.Len(t, all, 1)
	require.Contains(t, all, "reflect_stop")

	require.Equal(t, "reflect_stop.sh", ScriptNames["reflect_stop"])
}
