// Package buildinfo holds build-time metadata for the `version`
// subcommand, injected at release time:
//
//	go build -ldflags "-X github.com/edenpkg/edenpkg/internal/buildinfo.Version=..."
package buildinfo

import "runtime"

// Build-time variables injected via -ldflags; the zero values identify a
// plain `go build` development binary.
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = "unknown"
)

// OS returns the operating system (from runtime.GOOS).
func OS() string {
	return runtime.GOOS
}

// Arch returns the architecture (from runtime.GOARCH).
func Arch() string {
	return runtime.GOARCH
}
