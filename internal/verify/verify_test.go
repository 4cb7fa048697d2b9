package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/discovery"
	"github.com/edenpkg/edenpkg/internal/registry"
)

func baseSkill(id, targetDir string) config.Skill {
	return config.Skill{
		ID:      id,
		Source:  config.Source{Repo: "https://example.com/" + id + ".git"},
		Install: config.Install{Mode: config.InstallSymlink},
		Targets: []config.Target{
			{Agent: config.AgentCustom, Path: targetDir, Environment: "local"},
		},
		Verify: config.Verify{Enabled: true, Checks: config.DefaultVerifyChecks(config.InstallSymlink)},
	}
}

func TestRun_SourceMissing(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(storageRoot, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	cfg := &config.Config{StorageRoot: storageRoot, Skills: []config.Skill{baseSkill("formatter", targetDir)}}
	findings, err := Run(context.Background(), cfg, dir, Options{})
	require.NoError(t, err)

	var codes []string
	for _, f := range findings {
		codes = append(codes, f.Code)
	}
	assert.Contains(t, codes, CodeSourceMissing)
	assert.Contains(t, codes, CodeTargetMissing)
}

func TestRun_HealthySymlinkProducesNoFindings(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	sourcePath := filepath.Join(storageRoot, "formatter")
	require.NoError(t, os.MkdirAll(sourcePath, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))
	require.NoError(t, os.Symlink(sourcePath, filepath.Join(targetDir, "formatter")))

	cfg := &config.Config{StorageRoot: storageRoot, Skills: []config.Skill{baseSkill("formatter", targetDir)}}
	findings, err := Run(context.Background(), cfg, dir, Options{})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestRun_TargetNotSymlink(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	sourcePath := filepath.Join(storageRoot, "formatter")
	require.NoError(t, os.MkdirAll(sourcePath, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "formatter"), []byte("oops"), 0o644))

	cfg := &config.Config{StorageRoot: storageRoot, Skills: []config.Skill{baseSkill("formatter", targetDir)}}
	findings, err := Run(context.Background(), cfg, dir, Options{})
	require.NoError(t, err)

	var codes []string
	for _, f := range findings {
		codes = append(codes, f.Code)
	}
	assert.Contains(t, codes, CodeTargetNotSymlink)
}

func TestRun_SkipsDisabledVerify(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(storageRoot, 0o755))

	skill := baseSkill("formatter", filepath.Join(dir, "targets"))
	skill.Verify.Enabled = false
	cfg := &config.Config{StorageRoot: storageRoot, Skills: []config.Skill{skill}}

	findings, err := Run(context.Background(), cfg, dir, Options{})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestRun_RegistryStaleFinding(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(storageRoot, 0o755))

	registryRoot := filepath.Join(dir, "registries", "community")
	require.NoError(t, os.MkdirAll(registryRoot, 0o755))
	stamp := time.Now().Add(-10 * 24 * time.Hour).UTC().Format(time.RFC3339)
	require.NoError(t, os.WriteFile(filepath.Join(registryRoot, ".eden-last-sync"), []byte(stamp), 0o644))

	cfg := &config.Config{StorageRoot: storageRoot}
	findings, err := Run(context.Background(), cfg, dir, Options{
		RegistrySources: []registry.Source{{Name: "community", Root: registryRoot}},
	})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, CodeRegistryStale, findings[0].Code)
}

func TestRun_IgnorePatternsSuppressFindings(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(storageRoot, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	cfg := &config.Config{StorageRoot: storageRoot, Skills: []config.Skill{baseSkill("formatter", targetDir)}}

	findings, err := Run(context.Background(), cfg, dir, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, findings)

	suppressed, err := Run(context.Background(), cfg, dir, Options{
		IgnorePatterns: []string{filepath.ToSlash(dir) + "/**"},
	})
	require.NoError(t, err)
	assert.Empty(t, suppressed)
}

func TestRun_IgnorerSuppressesFindings(t *testing.T) {
	dir := t.TempDir()
	storageRoot := filepath.Join(dir, "store")
	require.NoError(t, os.MkdirAll(storageRoot, 0o755))
	targetDir := filepath.Join(dir, "targets")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	cfg := &config.Config{StorageRoot: storageRoot, Skills: []config.Skill{baseSkill("formatter", targetDir)}}

	ignorer, err := discovery.NewGitignoreMatcher([]string{"**/formatter"})
	require.NoError(t, err)

	suppressed, err := Run(context.Background(), cfg, dir, Options{Ignorer: ignorer})
	require.NoError(t, err)
	assert.Empty(t, suppressed)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Finding{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityWarning},
	})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Error)
	assert.Equal(t, 2, s.Warning)
}
