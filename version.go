package taxjar

import (
	"fmt"
	"runtime"
)

var (
	// Version is the library semantic version.
	Version = "v0.3.0"
	// GitCommit is the git SHA (inject via -ldflags at build time).
	GitCommit = "unknown"
	// BuildDate is the build timestamp (inject via -ldflags).
	BuildDate = "unknown"
	// GoVersion records the Go toolchain version used.
	GoVersion = runtime.Version()
)

// UserAgent is the default User-Agent header value.
func UserAgent() string {
	return fmt.Sprintf("taxjar-go/%s (%s)", Version, GoVersion)
}

// GetVersion returns a human-readable version string.
func GetVersion() string {
	return fmt.Sprintf("taxjar-go %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, GoVersion)
}

// GetVersionInfo returns version metadata as a map for logging.
func GetVersionInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
	}
}
