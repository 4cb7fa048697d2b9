package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/lock"
)

func newCfg(t *testing.T, storageRoot, targetDir string, mode config.InstallMode) *config.Config {
	t.Helper()
	return &config.Config{
		StorageRoot: storageRoot,
		Skills: []config.Skill{
			{
				ID:      "formatter",
				Source:  config.Source{Repo: "https://example.com/formatter.git"},
				Install: config.Install{Mode: mode},
				Targets: []config.Target{
					{Agent: config.AgentCustom, Path: targetDir},
				},
			},
		},
	}
}

func TestBuild_CreateWhenTargetMissing(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(filepath.Join(storageRoot, "formatter"), 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallSymlink)
	items, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionCreate, items[0].Action)
	assert.Equal(t, "formatter", items[0].SkillID)
}

func TestBuild_NoopWhenSymlinkAlreadyCorrect(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	sourcePath := filepath.Join(storageRoot, "formatter")
	require.NoError(t, os.MkdirAll(sourcePath, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	targetPath := filepath.Join(targetDir, "formatter")
	require.NoError(t, os.Symlink(sourcePath, targetPath))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallSymlink)
	items, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionNoop, items[0].Action)
}

func TestBuild_UpdateWhenSymlinkPointsElsewhere(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(filepath.Join(storageRoot, "formatter"), 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	elsewhere := filepath.Join(dir, "elsewhere")
	require.NoError(t, os.MkdirAll(elsewhere, 0o755))
	targetPath := filepath.Join(targetDir, "formatter")
	require.NoError(t, os.Symlink(elsewhere, targetPath))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallSymlink)
	items, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionUpdate, items[0].Action)
}

func TestBuild_ConflictWhenTargetIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(filepath.Join(storageRoot, "formatter"), 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	targetPath := filepath.Join(targetDir, "formatter")
	require.NoError(t, os.WriteFile(targetPath, []byte("not a symlink"), 0o644))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallSymlink)
	items, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionConflict, items[0].Action)
}

func TestBuild_CopyModeNoopOnIdenticalFile(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	sourcePath := filepath.Join(storageRoot, "formatter")
	require.NoError(t, os.MkdirAll(filepath.Dir(sourcePath), 0o755))
	require.NoError(t, os.WriteFile(sourcePath, []byte("hello"), 0o644))

	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "formatter"), []byte("hello"), 0o644))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallCopy)
	items, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionNoop, items[0].Action)
}

func TestBuild_CopyModeUpdateOnDifferentContent(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	sourcePath := filepath.Join(storageRoot, "formatter")
	require.NoError(t, os.MkdirAll(filepath.Dir(sourcePath), 0o755))
	require.NoError(t, os.WriteFile(sourcePath, []byte("hello"), 0o644))

	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "formatter"), []byte("goodbye"), 0o644))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallCopy)
	items, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionUpdate, items[0].Action)
}

func TestBuild_DeterministicOverRepeatedRuns(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(filepath.Join(storageRoot, "formatter"), 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	cfg := newCfg(t, storageRoot, targetDir, config.InstallSymlink)
	first, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	second, err := Build(cfg, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_RemoveItemForOrphanedLockEntry(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(storageRoot, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	cfg := &config.Config{StorageRoot: storageRoot}
	priorLock := &lock.File{
		Version: lock.Version,
		Skills: []lock.SkillEntry{
			{
				ID:          "retired",
				InstallMode: "symlink",
				Targets: []lock.Target{
					{Agent: "custom", Path: filepath.Join(targetDir, "retired")},
				},
			},
		},
	}

	items, err := Build(cfg, dir, priorLock)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ActionRemove, items[0].Action)
	assert.Equal(t, "retired", items[0].SkillID)
}
