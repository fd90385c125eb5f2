package version

import "fmt"

//nolint:gochecknoglobals // Overridden through -ldflags at build time.
var (
	// Version is the semantic version of the build.
	Version = "0.0.0-dev"
	// Commit is the short git SHA, or "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
