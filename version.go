package wisefetch

import (
	"fmt"
	"runtime"
)

// Build metadata. Version tracks releases; GitCommit and BuildDate are meant
// to be stamped through -ldflags and stay "unknown" in plain builds:
//
//	go build -ldflags "-X github.com/shinnn/wise-fetch.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "v1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// GetVersion renders the build metadata as a single line, suitable for
// startup banners and bug reports.
func GetVersion() string {
	return fmt.Sprintf("wise-fetch %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildDate, GoVersion)
}

// GetVersionInfo returns the same metadata keyed for structured logging.
func GetVersionInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
		"go_version": GoVersion,
	}
}
