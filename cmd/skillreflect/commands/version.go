package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roasbeef/skillreflect/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display the version, commit hash, and build metadata for skillreflect.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// runVersion prints the version and build information.
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("skillreflect version %s", build.Version())

	if build.Commit != "" {
		fmt.Printf(" commit=%s", build.Commit)
	}

	fmt.Printf(" go=%s", runtime.Version())
	fmt.Println()
}
