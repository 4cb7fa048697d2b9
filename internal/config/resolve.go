package config

import (
	"github.com/edenpkg/edenpkg/internal/ekind"
	"github.com/edenpkg/edenpkg/internal/paths"
)

// ResolveTargetPath picks a target's effective filesystem path: an explicit
// path wins, then expected_path, then the agent's documented default.
// Kept in internal/config rather than internal/paths because it needs
// AgentKind/Target, and internal/paths must stay free of any dependency
// on this package.
func ResolveTargetPath(target Target, configDir string) (string, error) {
	if target.Path != "" {
		return paths.Resolve(target.Path, configDir)
	}
	if target.ExpectedPath != "" {
		return paths.Resolve(target.ExpectedPath, configDir)
	}
	defaultPath, ok := DefaultAgentPath(target.Agent)
	if !ok {
		return "", ekind.New(ekind.Validation, "TARGET_PATH_UNRESOLVED: no path, expected_path, or default agent path")
	}
	return paths.Resolve(defaultPath, configDir)
}

// ResolveConcurrency applies a one-shot override (e.g. a --concurrency CLI
// flag) on top of the config's reactor setting, re-validating the bound.
func ResolveConcurrency(cfg *Config, flagOverride *int) (int, error) {
	value := cfg.Reactor.Concurrency
	if flagOverride != nil {
		value = *flagOverride
	}
	if value < MinConcurrency || value > MaxConcurrency {
		return 0, ekind.Validationf(CodeInvalidConcurrency, "concurrency",
			"must be between %d and %d, got %d", MinConcurrency, MaxConcurrency, value)
	}
	return value, nil
}
