package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/edenpkg/edenpkg/internal/ekind"
)

// allowedTopLevelKeys is the set of recognized top-level config keys;
// anything else produces an unknown-key warning.
var allowedTopLevelKeys = map[string]bool{
	"version":    true,
	"storage":    true,
	"registries": true,
	"skills":     true,
	"reactor":    true,
}

// LoadOptions controls loader behavior.
type LoadOptions struct {
	// Strict promotes unknown-top-level-key warnings to validation errors.
	Strict bool
}

// Loaded is the outcome of a successful load: the validated Config plus
// any non-fatal warnings collected along the way.
type Loaded struct {
	Config   Config
	Warnings []string
}

// rawConfig is the TOML decode target. All fields are pointers/omittable
// so missing-vs-zero-value can be told apart before defaults kick in.
type rawConfig struct {
	Version    *int                   `toml:"version"`
	Storage    *rawStorageConfig      `toml:"storage"`
	Registries map[string]rawRegistry `toml:"registries"`
	Reactor    *rawReactorConfig      `toml:"reactor"`
	Skills     []rawSkill             `toml:"skills"`
}

type rawStorageConfig struct {
	Root *string `toml:"root"`
}

type rawRegistry struct {
	URL        string `toml:"url"`
	Priority   *int64 `toml:"priority"`
	AutoUpdate *bool  `toml:"auto_update"`
}

type rawReactorConfig struct {
	Concurrency *int `toml:"concurrency"`
}

type rawSkill struct {
	ID       *string     `toml:"id"`
	Name     *string     `toml:"name"`
	Version  *string     `toml:"version"`
	Registry *string     `toml:"registry"`
	Source   *rawSource  `toml:"source"`
	Install  *rawInstall `toml:"install"`
	Targets  []rawTarget `toml:"targets"`
	Verify   *rawVerify  `toml:"verify"`
	Safety   *rawSafety  `toml:"safety"`
}

type rawSource struct {
	Repo    *string `toml:"repo"`
	Subpath *string `toml:"subpath"`
	Ref     *string `toml:"ref"`
}

type rawInstall struct {
	Mode *string `toml:"mode"`
}

type rawTarget struct {
	Agent        *string `toml:"agent"`
	ExpectedPath *string `toml:"expected_path"`
	Path         *string `toml:"path"`
	Environment  *string `toml:"environment"`
}

type rawVerify struct {
	Enabled *bool    `toml:"enabled"`
	Checks  []string `toml:"checks"`
}

type rawSafety struct {
	NoExecMetadataOnly *bool `toml:"no_exec_metadata_only"`
}

const defaultStorageRoot = "~/.local/share/edenpkg/repos"

// LoadFromFile reads and validates a config file, returning the typed
// Config plus any warnings about unknown top-level keys.
func LoadFromFile(path string, opts LoadOptions) (*Loaded, error) {
	configDir := filepath.Dir(path)

	var raw rawConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, ekind.Newf(ekind.Validation, "root: invalid config toml: %v", err)
	}

	warnings := topLevelUnknownKeyWarnings(meta)
	if opts.Strict && len(warnings) > 0 {
		return nil, ekind.Newf(ekind.Validation, "root: unknown top-level keys in strict mode: %v", warnings)
	}

	cfg, err := raw.intoConfig(configDir)
	if err != nil {
		return nil, err
	}

	return &Loaded{Config: *cfg, Warnings: warnings}, nil
}

// LoadFromString behaves like LoadFromFile but reads from an in-memory
// TOML document; configDir anchors relative paths the same way a config
// file's parent directory would.
func LoadFromString(data, configDir string, opts LoadOptions) (*Loaded, error) {
	var raw rawConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, ekind.Newf(ekind.Validation, "root: invalid config toml: %v", err)
	}

	warnings := topLevelUnknownKeyWarnings(meta)
	if opts.Strict && len(warnings) > 0 {
		return nil, ekind.Newf(ekind.Validation, "root: unknown top-level keys in strict mode: %v", warnings)
	}

	cfg, err := raw.intoConfig(configDir)
	if err != nil {
		return nil, err
	}

	return &Loaded{Config: *cfg, Warnings: warnings}, nil
}

func topLevelUnknownKeyWarnings(meta toml.MetaData) []string {
	var warnings []string
	seen := map[string]bool{}
	for _, key := range meta.Undecoded() {
		if len(key) == 0 {
			continue
		}
		top := key[0]
		if allowedTopLevelKeys[top] || seen[top] {
			continue
		}
		seen[top] = true
		warnings = append(warnings, fmt.Sprintf("unknown top-level key `%s`", top))
	}
	return warnings
}

func required[T any](value *T, fieldPath string) (T, error) {
	var zero T
	if value == nil {
		return zero, ekind.Newf(ekind.Validation, "%s: missing required field", fieldPath)
	}
	return *value, nil
}
