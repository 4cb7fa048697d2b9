// Package config loads and validates the declarative TOML configuration
// that drives the reconciliation engine: skill sources, install modes,
// per-agent targets, verify checks, and reactor tuning.
package config

// AgentKind enumerates every agent target the engine knows a documented
// default install path for, plus Custom for anything else.
type AgentKind string

const (
	AgentClaudeCode  AgentKind = "claude-code"
	AgentCursor      AgentKind = "cursor"
	AgentAntigravity AgentKind = "antigravity"
	AgentAugment     AgentKind = "augment"
	AgentOpenclaw    AgentKind = "openclaw"
	AgentCline       AgentKind = "cline"
	AgentCodebuddy   AgentKind = "codebuddy"
	AgentCommandCode AgentKind = "command-code"
	AgentContinue    AgentKind = "continue"
	AgentCortex      AgentKind = "cortex"
	AgentCrush       AgentKind = "crush"
	AgentDroid       AgentKind = "droid"
	AgentGoose       AgentKind = "goose"
	AgentJunie       AgentKind = "junie"
	AgentIflowCli    AgentKind = "iflow-cli"
	AgentKilo        AgentKind = "kilo"
	AgentKiroCli     AgentKind = "kiro-cli"
	AgentKode        AgentKind = "kode"
	AgentMcpjam      AgentKind = "mcpjam"
	AgentMistralVibe AgentKind = "mistral-vibe"
	AgentMux         AgentKind = "mux"
	AgentOpenhands   AgentKind = "openhands"
	AgentPi          AgentKind = "pi"
	AgentQoder       AgentKind = "qoder"
	AgentQwenCode    AgentKind = "qwen-code"
	AgentRoo         AgentKind = "roo"
	AgentTrae        AgentKind = "trae"
	AgentWindsurf    AgentKind = "windsurf"
	AgentZencoder    AgentKind = "zencoder"
	AgentNeovate     AgentKind = "neovate"
	AgentPochi       AgentKind = "pochi"
	AgentAdal        AgentKind = "adal"
	AgentCustom      AgentKind = "custom"
)

// agentDefaultPath maps each agent kind to its documented default skills
// directory. Custom is absent: a target with agent=custom requires an
// explicit path.
var agentDefaultPath = map[AgentKind]string{
	AgentClaudeCode:  "~/.claude/skills",
	AgentCursor:      "~/.cursor/skills",
	AgentAntigravity: "~/.agent/skills",
	AgentAugment:     "~/.augment/skills",
	AgentOpenclaw:    "~/skills",
	AgentCline:       "~/.cline/skills",
	AgentCodebuddy:   "~/.codebuddy/skills",
	AgentCommandCode: "~/.commandcode/skills",
	AgentContinue:    "~/.continue/skills",
	AgentCortex:      "~/.cortex/skills",
	AgentCrush:       "~/.crush/skills",
	AgentDroid:       "~/.factory/skills",
	AgentGoose:       "~/.goose/skills",
	AgentJunie:       "~/.junie/skills",
	AgentIflowCli:    "~/.iflow/skills",
	AgentKilo:        "~/.kilocode/skills",
	AgentKiroCli:     "~/.kiro/skills",
	AgentKode:        "~/.kode/skills",
	AgentMcpjam:      "~/.mcpjam/skills",
	AgentMistralVibe: "~/.vibe/skills",
	AgentMux:         "~/.mux/skills",
	AgentOpenhands:   "~/.openhands/skills",
	AgentPi:          "~/.pi/skills",
	AgentQoder:       "~/.qoder/skills",
	AgentQwenCode:    "~/.qwen/skills",
	AgentRoo:         "~/.roo/skills",
	AgentTrae:        "~/.trae/skills",
	AgentWindsurf:    "~/.windsurf/skills",
	AgentZencoder:    "~/.zencoder/skills",
	AgentNeovate:     "~/.neovate/skills",
	AgentPochi:       "~/.pochi/skills",
	AgentAdal:        "~/.adal/skills",
}

// DefaultAgentPath returns the documented default skills directory for an
// agent kind, e.g. "~/.claude/skills".
func DefaultAgentPath(agent AgentKind) (string, bool) {
	path, ok := agentDefaultPath[agent]
	return path, ok
}

// InstallMode selects how a skill's content is exposed at a target: a
// symlink into the content store, or a recursive byte copy.
type InstallMode string

const (
	InstallSymlink InstallMode = "symlink"
	InstallCopy    InstallMode = "copy"
)

// Config is the fully-loaded, validated, immutable configuration.
type Config struct {
	Version     int
	StorageRoot string
	Registries  map[string]RegistryConfig
	Reactor     ReactorConfig
	Skills      []Skill
}

// RegistryConfig describes one named skill registry source.
type RegistryConfig struct {
	Name     string
	URL      string
	Priority uint32
}

// ReactorConfig tunes the apply reactor's bounded concurrency.
type ReactorConfig struct {
	Concurrency int
}

// DefaultConcurrency is used when [reactor] is absent from the config.
const DefaultConcurrency = 10

// MinConcurrency and MaxConcurrency bound the configurable value.
const (
	MinConcurrency = 1
	MaxConcurrency = 100
)

// registryModeRepoPrefix marks a Source.Repo as a lowered registry-mode
// reference rather than a real git URL.
const registryModeRepoPrefix = "registry://"

// Source describes where a skill's content comes from. After loading,
// registry-mode skills are lowered into this same shape: Repo becomes
// "registry://<name>" (or "registry://" with no name) and Ref carries the
// semver constraint instead of a git ref.
type Source struct {
	Repo    string
	Subpath string
	Ref     string
}

// EncodeRegistryModeRepo builds the sentinel repo string for a registry
// reference, or the bare prefix when no named registry was specified.
func EncodeRegistryModeRepo(registryName string) string {
	if registryName == "" {
		return registryModeRepoPrefix
	}
	return registryModeRepoPrefix + registryName
}

// DecodeRegistryModeRepo reports whether repo is a lowered registry-mode
// reference, returning the registry name (empty if none was specified).
func DecodeRegistryModeRepo(repo string) (name string, ok bool) {
	rest, found := cutPrefix(repo, registryModeRepoPrefix)
	if !found {
		return "", false
	}
	return rest, true
}

// IsRegistryModeRepo reports whether repo is a lowered registry-mode
// sentinel rather than a real git URL.
func IsRegistryModeRepo(repo string) bool {
	_, ok := cutPrefix(repo, registryModeRepoPrefix)
	return ok
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

// Install selects symlink vs. copy materialization.
type Install struct {
	Mode InstallMode
}

// Target describes one (agent, path, environment) destination for a
// skill. Environment is "local" or "docker:<container>".
type Target struct {
	Agent        AgentKind
	Path         string
	ExpectedPath string
	Environment  string
}

// Verify configures the doctor checks run for a skill.
type Verify struct {
	Enabled bool
	Checks  []string
}

// Safety configures the safety-scan posture for a skill.
type Safety struct {
	NoExecMetadataOnly bool
}

// Skill is one declared package: its identity, source, install mode,
// targets, verify config, and safety posture.
type Skill struct {
	ID     string
	Source Source
	Install
	Targets []Target
	Verify  Verify
	Safety  Safety
}

// Recognized verify check names.
const (
	CheckPathExists     = "path-exists"
	CheckIsSymlink      = "is-symlink"
	CheckTargetResolves = "target-resolves"
	CheckContentPresent = "content-present"
)

// DefaultVerifyChecks returns the mode-dependent default check set.
func DefaultVerifyChecks(mode InstallMode) []string {
	if mode == InstallCopy {
		return []string{CheckPathExists, CheckContentPresent}
	}
	return []string{CheckPathExists, CheckTargetResolves, CheckIsSymlink}
}
