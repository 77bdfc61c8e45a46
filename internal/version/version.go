// Package version carries build metadata injected at link time via
// -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for startup logs and -version output.
func String() string {
	return fmt.Sprintf("cloudreplay %s (%s, built %s)", Version, GitSHA, BuildTime)
}
