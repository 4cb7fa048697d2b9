package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenpkg/edenpkg/internal/config"
)

func TestPathForConfig(t *testing.T) {
	assert.Equal(t, "/tmp/skills.lock", PathForConfig("/tmp/skills.toml"))
	assert.Equal(t, "/tmp/skills.conf.lock", PathForConfig("/tmp/skills.conf"))
	assert.Equal(t, "/tmp/SKILLS.lock", PathForConfig("/tmp/SKILLS.TOML"))
}

func TestRead_Missing(t *testing.T) {
	dir := t.TempDir()
	file, warning, err := Read(filepath.Join(dir, "skills.lock"))
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, Empty(), file)
}

func TestRead_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skills.lock")
	require.NoError(t, os.WriteFile(path, []byte("not { valid toml"), 0o644))

	file, warning, err := Read(path)
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.Equal(t, Empty(), file)
}

func TestRead_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skills.lock")
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o644))

	file, warning, err := Read(path)
	require.NoError(t, err)
	assert.Contains(t, warning, "unsupported version")
	assert.Equal(t, Empty(), file)
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skills.lock")

	f := &File{
		Version: Version,
		Skills: []SkillEntry{
			{
				ID:             "zeta",
				SourceRepo:     "https://example.com/zeta.git",
				ResolvedCommit: "abc123",
				InstallMode:    "symlink",
				Targets: []Target{
					{Agent: "cursor", Path: "/home/u/.agents/skills/zeta"},
					{Agent: "claude-code", Path: "/home/u/.claude/skills/zeta"},
				},
			},
			{
				ID:             "alpha",
				SourceRepo:     "https://example.com/alpha.git",
				ResolvedCommit: "def456",
				InstallMode:    "copy",
			},
		},
	}
	require.NoError(t, Write(path, f))

	got, warning, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, warning)
	require.Len(t, got.Skills, 2)
	assert.Equal(t, "alpha", got.Skills[0].ID)
	assert.Equal(t, "zeta", got.Skills[1].ID)
	require.Len(t, got.Skills[1].Targets, 2)
	assert.Equal(t, "claude-code", got.Skills[1].Targets[0].Agent)
	assert.Equal(t, "cursor", got.Skills[1].Targets[1].Agent)
}

func TestBuildFromConfig_RegistryModeUsesConstraintAsResolvedVersion(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Skills: []config.Skill{
			{
				ID:      "linter",
				Source:  config.Source{Repo: config.EncodeRegistryModeRepo("community"), Ref: "^1.2"},
				Install: config.Install{Mode: config.InstallSymlink},
				Targets: []config.Target{
					{Agent: config.AgentClaudeCode},
				},
			},
			{
				ID:      "direct",
				Source:  config.Source{Repo: "https://example.com/direct.git", Ref: "main"},
				Install: config.Install{Mode: config.InstallSymlink},
			},
		},
	}

	got, err := BuildFromConfig(cfg, dir, map[string]string{
		"linter": "c0ffee",
		"direct": "beef00",
	})
	require.NoError(t, err)
	require.Len(t, got.Skills, 2)

	entry, ok := FindEntry(got, "linter")
	require.True(t, ok)
	assert.Equal(t, "^1.2", entry.ResolvedVersion)
	assert.Equal(t, config.EncodeRegistryModeRepo("community"), entry.SourceRepo)
	assert.Equal(t, "c0ffee", entry.ResolvedCommit)
	require.Len(t, entry.Targets, 1)
	assert.Contains(t, entry.Targets[0].Path, "linter")

	direct, ok := FindEntry(got, "direct")
	require.True(t, ok)
	assert.Empty(t, direct.ResolvedVersion)
}

func TestOrphans(t *testing.T) {
	priorLock := &File{Version: Version, Skills: []SkillEntry{
		{ID: "kept"},
		{ID: "dropped"},
	}}
	cfg := &config.Config{Skills: []config.Skill{{ID: "kept"}}}

	orphans := Orphans(priorLock, cfg)
	require.Len(t, orphans, 1)
	assert.Equal(t, "dropped", orphans[0].ID)
}
