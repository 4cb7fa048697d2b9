package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenpkg/edenpkg/internal/ekind"
)

func TestLoadFromString_ModeA_Minimal(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "my-skill"

[skills.source]
repo = "https://example.com/my-skill.git"

[[skills.targets]]
agent = "claude-code"
`
	loaded, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, loaded.Config.Skills, 1)

	skill := loaded.Config.Skills[0]
	assert.Equal(t, "my-skill", skill.ID)
	assert.Equal(t, "https://example.com/my-skill.git", skill.Source.Repo)
	assert.Equal(t, "main", skill.Source.Ref)
	assert.Equal(t, ".", skill.Source.Subpath)
	assert.Equal(t, InstallSymlink, skill.Install.Mode)
	assert.Equal(t, DefaultVerifyChecks(InstallSymlink), skill.Verify.Checks)
	assert.True(t, skill.Verify.Enabled)
	assert.Equal(t, DefaultConcurrency, loaded.Config.Reactor.Concurrency)
	assert.Equal(t, defaultStorageRoot, loaded.Config.StorageRoot)
}

func TestLoadFromString_ModeB_RegistrySkill(t *testing.T) {
	data := `
version = 1

[registries.central]
url = "https://example.com/registry.git"

[[skills]]
name = "pdf-tools"
version = "^1.2"
registry = "central"

[[skills.targets]]
agent = "cursor"
`
	loaded, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, loaded.Config.Skills, 1)

	skill := loaded.Config.Skills[0]
	assert.Equal(t, "pdf-tools", skill.ID)
	assert.Equal(t, "registry://central", skill.Source.Repo)
	assert.Equal(t, "^1.2", skill.Source.Ref)

	name, ok := DecodeRegistryModeRepo(skill.Source.Repo)
	assert.True(t, ok)
	assert.Equal(t, "central", name)
}

func TestLoadFromString_ModeB_RequiresRegistries(t *testing.T) {
	data := `
version = 1

[[skills]]
name = "pdf-tools"

[[skills.targets]]
agent = "cursor"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	var e *ekind.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeMissingRegistries, e.Code)
}

func TestLoadFromString_MixedModeRejected(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "x"
name = "y"

[skills.source]
repo = "https://example.com/x.git"

[[skills.targets]]
agent = "cursor"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	var e *ekind.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeInvalidSkillMode, e.Code)
}

func TestLoadFromString_DuplicateSkillID(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "dup"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"

[[skills]]
id = "dup"
[skills.source]
repo = "https://example.com/b.git"
[[skills.targets]]
agent = "cursor"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	var e *ekind.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeDuplicateSkillID, e.Code)
}

func TestLoadFromString_InvalidSemverConstraint(t *testing.T) {
	data := `
version = 1

[registries.central]
url = "https://example.com/registry.git"

[[skills]]
name = "pdf-tools"
version = "not-a-version!!"
registry = "central"

[[skills.targets]]
agent = "cursor"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	var e *ekind.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeInvalidSemver, e.Code)
}

func TestLoadFromString_CustomAgentRequiresPath(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "custom"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required when agent=custom")
}

func TestLoadFromString_InvalidEnvironment(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"
environment = "vm"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	var e *ekind.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeInvalidEnvironment, e.Code)
}

func TestLoadFromString_DockerEnvironmentAccepted(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"
environment = "docker:my-container"
`
	loaded, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "docker:my-container", loaded.Config.Skills[0].Targets[0].Environment)
}

func TestLoadFromString_UnknownTopLevelKeyWarns(t *testing.T) {
	data := `
version = 1
typo_field = true

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"
`
	loaded, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.NoError(t, err)
	require.Len(t, loaded.Warnings, 1)
	assert.Contains(t, loaded.Warnings[0], "typo_field")
}

func TestLoadFromString_StrictModePromotesWarningToError(t *testing.T) {
	data := `
version = 1
typo_field = true

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{Strict: true})
	require.Error(t, err)
}

func TestLoadFromString_InvalidConcurrency(t *testing.T) {
	data := `
version = 1

[reactor]
concurrency = 0

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"
`
	_, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.Error(t, err)
	var e *ekind.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, CodeInvalidConcurrency, e.Code)
}

func TestDefaultAgentPath(t *testing.T) {
	got, ok := DefaultAgentPath(AgentClaudeCode)
	require.True(t, ok)
	assert.Equal(t, "~/.claude/skills", got)

	got, ok = DefaultAgentPath(AgentCursor)
	require.True(t, ok)
	assert.Equal(t, "~/.cursor/skills", got)

	got, ok = DefaultAgentPath(AgentOpenclaw)
	require.True(t, ok)
	assert.Equal(t, "~/skills", got)

	_, ok = DefaultAgentPath(AgentCustom)
	assert.False(t, ok)
}

func TestResolveTargetPath_ExplicitPathWins(t *testing.T) {
	target := Target{Agent: AgentClaudeCode, Path: "skills/foo", ExpectedPath: "other"}
	got, err := ResolveTargetPath(target, "/cfg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/cfg/skills/foo"), got)
}

func TestResolveTargetPath_FallsBackToDefault(t *testing.T) {
	target := Target{Agent: AgentClaudeCode}
	got, err := ResolveTargetPath(target, "/cfg")
	require.NoError(t, err)
	assert.Contains(t, got, filepath.Join(".claude", "skills"))
}

func TestResolveTargetPath_CustomWithoutPathUnresolved(t *testing.T) {
	target := Target{Agent: AgentCustom}
	_, err := ResolveTargetPath(target, "/cfg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_PATH_UNRESOLVED")
}

func TestResolveConcurrency_Override(t *testing.T) {
	cfg := &Config{Reactor: ReactorConfig{Concurrency: 5}}
	override := 20
	got, err := ResolveConcurrency(cfg, &override)
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}

func TestResolveConcurrency_InvalidOverride(t *testing.T) {
	cfg := &Config{Reactor: ReactorConfig{Concurrency: 5}}
	override := 0
	_, err := ResolveConcurrency(cfg, &override)
	require.Error(t, err)
}

func TestValidateConfig_RoundTripsLoadedConfig(t *testing.T) {
	data := `
version = 1

[[skills]]
id = "x"
[skills.source]
repo = "https://example.com/a.git"
[[skills.targets]]
agent = "cursor"
`
	loaded, err := LoadFromString(data, "/cfg", LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(&loaded.Config, "/cfg"))
}

func TestEncodeDecodeRegistryModeRepo(t *testing.T) {
	assert.Equal(t, "registry://", EncodeRegistryModeRepo(""))
	assert.Equal(t, "registry://central", EncodeRegistryModeRepo("central"))

	name, ok := DecodeRegistryModeRepo("registry://central")
	assert.True(t, ok)
	assert.Equal(t, "central", name)

	name, ok = DecodeRegistryModeRepo("registry://")
	assert.True(t, ok)
	assert.Equal(t, "", name)

	_, ok = DecodeRegistryModeRepo("https://example.com/x.git")
	assert.False(t, ok)
}
