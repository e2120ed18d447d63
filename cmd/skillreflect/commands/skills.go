package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/skilldoc"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect skill documents",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skill documents and their reflection metadata",
	RunE:  runSkillsList,
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one skill's metadata and learnings",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsShow,
}

func init() {
	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)

	rootCmd.AddCommand(skillsCmd)
}

// getSkillStore builds the document store from flags.
func getSkillStore() (*skilldoc.Store, error) {
	dir := skillsDir
	if dir == "" {
		var err error
		dir, err = skilldoc.DefaultSkillsDir()
		if err != nil {
			return nil, err
		}
	}
	return skilldoc.NewStore(dir), nil
}

func runSkillsList(cmd *cobra.Command, args []string) error {
	store, err := getSkillStore()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return err
	}

	type skillInfo struct {
		Name            string `json:"name"`
		Version         int    `json:"version"`
		ReflectionCount int    `json:"reflection_count"`
		LastReflection  string `json:"last_reflection,omitempty"`
	}

	infos := make([]skillInfo, 0, len(names))
	for _, name := range names {
		doc, err := store.Load(name)
		if err != nil {
			log.Warn("skipping unreadable skill",
				"skill", name, "err", err)
			continue
		}
		infos = append(infos, skillInfo{
			Name:            name,
			Version:         doc.Meta.Version,
			ReflectionCount: doc.Meta.ReflectionCount,
			LastReflection:  doc.Meta.LastReflection,
		})
	}

	if outputFormat == "json" {
		return outputJSON(infos)
	}

	if len(infos) == 0 {
		fmt.Printf("No skills found in %s.\n", store.Dir())
		return nil
	}

	fmt.Printf("%-28s %8s %12s  %s\n",
		"SKILL", "VERSION", "REFLECTIONS", "LAST")
	for _, info := range infos {
		last := info.LastReflection
		if last == "" {
			last = "-"
		}
		fmt.Printf("%-28s %8d %12d  %s\n",
			info.Name, info.Version, info.ReflectionCount, last)
	}

	return nil
}

func runSkillsShow(cmd *cobra.Command, args []string) error {
	store, err := getSkillStore()
	if err != nil {
		return err
	}

	doc, err := store.Load(args[0])
	if err != nil {
		return err
	}

	learnings := doc.Learnings()

	if outputFormat == "json" {
		return outputJSON(map[string]any{
			"name":      doc.Name,
			"path":      doc.Path,
			"meta":      doc.Meta,
			"learnings": learnings,
		})
	}

	fmt.Printf("Skill:            %s\n", doc.Name)
	fmt.Printf("Path:             %s\n", doc.Path)
	fmt.Printf("Version:          %d\n", doc.Meta.Version)
	fmt.Printf("Reflection count: %d\n", doc.Meta.ReflectionCount)
	if doc.Meta.LastReflection != "" {
		fmt.Printf("Last reflection:  %s\n", doc.Meta.LastReflection)
	}

	if len(learnings) == 0 {
		fmt.Println("\nNo learnings recorded.")
		return nil
	}

	fmt.Printf("\nLearnings (%d):\n", len(learnings))
	for _, l := range learnings {
		fmt.Printf("  %s  [%s] %s\n",
			l.Timestamp.Format("2006-01-02"), l.Confidence,
			l.Change)
	}

	return nil
}
