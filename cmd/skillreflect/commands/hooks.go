package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/hooks"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage Claude Code hooks integration",
	Long: `Manage the integration between skillreflect and Claude Code hooks.

The Stop hook runs the reflection pipeline over the session that just
ended, in auto_approve mode: high confidence learnings apply, everything
else parks for review.`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install skillreflect hooks into ~/.claude",
	Long: `Install hook scripts and update settings.json for skillreflect.

This command:
1. Creates ~/.claude/hooks/skillreflect/ with hook scripts
2. Updates ~/.claude/settings.json to register the Stop hook
3. Installs the skillreflect skill to ~/.claude/skills/skillreflect/

Existing hooks in settings.json are preserved; skillreflect hooks are
appended.`,
	RunE: runHooksInstall,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove skillreflect hooks from ~/.claude",
	Long:  `Remove skillreflect hooks from settings.json and delete hook scripts.`,
	RunE:  runHooksUninstall,
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check skillreflect hooks installation status",
	RunE:  runHooksStatus,
}

func init() {
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksStatusCmd)

	rootCmd.AddCommand(hooksCmd)
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	claudeDir := getClaudeDir()

	// 1. Create hook scripts directory.
	scriptsDir := filepath.Join(claudeDir, "hooks", "skillreflect")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	// 2. Write hook scripts.
	for name, content := range hooks.AllScripts() {
		filename := hooks.ScriptNames[name]
		scriptPath := filepath.Join(scriptsDir, filename)

		if err := os.WriteFile(scriptPath, []byte(content), 0o755); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
	}

	// 3. Update settings.json.
	settings, err := hooks.LoadSettings(claudeDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	hooks.InstallHooks(settings)

	if err := hooks.SaveSettings(claudeDir, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	// 4. Install skill.
	if err := installSkill(claudeDir); err != nil {
		return fmt.Errorf("failed to install skill: %w", err)
	}

	fmt.Println("Skillreflect hooks installed successfully!")
	fmt.Println()
	fmt.Println("Installed components:")
	fmt.Printf("  - Hook scripts: %s\n", scriptsDir)
	fmt.Printf("  - Settings: %s\n", filepath.Join(claudeDir, "settings.json"))
	fmt.Printf("  - Skill: %s\n", filepath.Join(claudeDir, "skills", "skillreflect"))
	fmt.Println()
	fmt.Println("Hooks installed:")
	for event := range hooks.HookDefinitions {
		fmt.Printf("  - %s\n", event)
	}
	fmt.Println()
	fmt.Println("Finished sessions will now feed the reflection pipeline.")

	return nil
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	claudeDir := getClaudeDir()

	// 1. Remove hook scripts directory.
	scriptsDir := filepath.Join(claudeDir, "hooks", "skillreflect")
	if err := os.RemoveAll(scriptsDir); err != nil {
		return fmt.Errorf("failed to remove hooks directory: %w", err)
	}

	// 2. Update settings.json to remove hooks.
	settings, err := hooks.LoadSettings(claudeDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	hooks.UninstallHooks(settings)

	if err := hooks.SaveSettings(claudeDir, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	// 3. Remove skill. Ignore errors removing the skill directory.
	skillDir := filepath.Join(claudeDir, "skills", "skillreflect")
	_ = os.RemoveAll(skillDir)

	fmt.Println("Skillreflect hooks uninstalled.")
	fmt.Printf("  - Removed: %s\n", scriptsDir)
	fmt.Printf("  - Updated: %s\n", filepath.Join(claudeDir, "settings.json"))

	return nil
}

func runHooksStatus(cmd *cobra.Command, args []string) error {
	claudeDir := getClaudeDir()

	settings, err := hooks.LoadSettings(claudeDir)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Check script files.
	scriptsDir := filepath.Join(claudeDir, "hooks", "skillreflect")
	scriptFilesExist := true
	for name := range hooks.ScriptNames {
		scriptPath := filepath.Join(
			scriptsDir, hooks.ScriptNames[name],
		)
		if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
			scriptFilesExist = false
			break
		}
	}

	// Check skill.
	skillDir := filepath.Join(claudeDir, "skills", "skillreflect")
	skillExists := false
	if _, err := os.Stat(filepath.Join(skillDir, "SKILL.md")); err == nil {
		skillExists = true
	}

	installedEvents := hooks.GetInstalledHookEvents(settings)

	switch outputFormat {
	case "json":
		return outputJSON(map[string]any{
			"installed":     hooks.IsInstalled(settings),
			"scripts_exist": scriptFilesExist,
			"skill_exists":  skillExists,
			"hook_events":   installedEvents,
			"scripts_dir":   scriptsDir,
			"settings_path": filepath.Join(claudeDir, "settings.json"),
		})
	default:
		fmt.Println("Skillreflect Hooks Status")
		fmt.Println("=========================")
		fmt.Println()

		if hooks.IsInstalled(settings) && scriptFilesExist {
			fmt.Println("Status: INSTALLED")
		} else if hooks.IsInstalled(settings) || scriptFilesExist {
			fmt.Println("Status: PARTIAL (run 'skillreflect hooks install' to complete)")
		} else {
			fmt.Println("Status: NOT INSTALLED")
		}

		fmt.Println()
		fmt.Printf("Scripts directory: %s\n", scriptsDir)
		if scriptFilesExist {
			fmt.Println("  Scripts: All present")
		} else {
			fmt.Println("  Scripts: Missing")
		}

		fmt.Println()
		fmt.Printf("Skill: %s\n", skillDir)
		if skillExists {
			fmt.Println("  SKILL.md: Present")
		} else {
			fmt.Println("  SKILL.md: Missing")
		}

		fmt.Println()
		fmt.Println("Hooks in settings.json:")
		if len(installedEvents) == 0 {
			fmt.Println("  None")
		} else {
			sort.Strings(installedEvents)
			for _, event := range installedEvents {
				fmt.Printf("  - %s\n", event)
			}
		}
	}

	return nil
}

// installSkill installs the skillreflect skill to
// ~/.claude/skills/skillreflect/.
func installSkill(claudeDir string) error {
	skillDir := filepath.Join(claudeDir, "skills", "skillreflect")
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return err
	}

	skillPath := filepath.Join(skillDir, "SKILL.md")
	return os.WriteFile(skillPath, []byte(hooks.SkillContent), 0o644)
}
