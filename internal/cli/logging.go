// Package cli implements the Cobra command hierarchy for the edenpkg CLI:
// plan/apply/doctor/repair/lock-diff dispatch onto internal/engine, plus
// the cross-cutting logging/exit-code concerns every subcommand shares.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger. format should
// be "json" for JSON output or anything else (including empty) for
// human-readable text. All log output goes to os.Stderr so stdout stays
// clean for plan/doctor JSON payloads.
func SetupLogging(level slog.Level, format string) {
	setupLoggingWithWriter(level, format, os.Stderr)
}

func setupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel applies EDENPKG_DEBUG, then --verbose, then --quiet, in
// that priority order, defaulting to Info.
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("EDENPKG_DEBUG") == "1" {
		return slog.LevelDebug
	}
	if verbose {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveLogFormat reads EDENPKG_LOG_FORMAT, defaulting to "text".
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("EDENPKG_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}
