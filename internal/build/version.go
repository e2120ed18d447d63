package build

import "fmt"

// Version components. The patch level is bumped per release; Commit is
// stamped via -ldflags at build time.
const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0

	// appPreRelease marks the version as unstable. Empty for releases.
	appPreRelease = "beta"
)

// Commit is the full git commit hash, set via -ldflags.
var Commit string

// Version returns the application version as a properly formed string.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

	if appPreRelease != "" {
		version = fmt.Sprintf("%s-%s", version, appPreRelease)
	}

	return version
}
