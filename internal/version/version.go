// Package version holds build information for mgaq.
package version

import (
	"fmt"
	"runtime"
)

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X mgaq/internal/version.Version=1.0.0 -X mgaq/internal/version.Commit=abc123"
var (
	// Version is the semantic version of mgaq
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return fmt.Sprintf("mgaq version %s\nCommit: %s\nBuilt: %s\nGo: %s %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
