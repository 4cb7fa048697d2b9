// Package lock reads and writes the observed-installed-state lock file
// that makes apply idempotent and enables orphan detection.
package lock

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Version is the only lock schema version this engine understands. An
// on-disk lock declaring anything else is treated as absent.
const Version = 1

// File is the full parsed lock document.
type File struct {
	Version int          `toml:"version"`
	Skills  []SkillEntry `toml:"skills"`
}

// SkillEntry records one installed skill's resolved source and targets.
type SkillEntry struct {
	ID              string   `toml:"id"`
	SourceRepo      string   `toml:"source_repo"`
	SourceSubpath   string   `toml:"source_subpath"`
	SourceRef       string   `toml:"source_ref"`
	ResolvedCommit  string   `toml:"resolved_commit"`
	ResolvedVersion string   `toml:"resolved_version,omitempty"`
	InstallMode     string   `toml:"install_mode"`
	InstalledAt     string   `toml:"installed_at"`
	Targets         []Target `toml:"targets"`
}

// Target is one (agent, path) pair an installed skill materialized to.
type Target struct {
	Agent string `toml:"agent"`
	Path  string `toml:"path"`
}

// Empty returns a version-1 lock file with no entries.
func Empty() *File {
	return &File{Version: Version}
}

// PathForConfig derives the lock file path from a config file path:
// replace a `.toml` extension with `.lock`, otherwise append `.lock`.
func PathForConfig(configPath string) string {
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		return strings.TrimSuffix(configPath, filepath.Ext(configPath)) + ".lock"
	}
	return configPath + ".lock"
}

// Read loads a lock file. A missing file returns an empty lock with no
// error. A corrupt file or unsupported version also returns an empty
// lock, paired with a human-readable warning the caller should surface.
func Read(lockPath string) (*File, string, error) {
	raw, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), "", nil
		}
		return nil, "", ekind.Wrap(ekind.Io, err)
	}

	var parsed File
	if _, err := toml.Decode(string(raw), &parsed); err != nil {
		return Empty(), "skills.lock is corrupted; performing full reconciliation", nil
	}
	if parsed.Version != Version {
		return Empty(), "skills.lock has an unsupported version; performing full reconciliation", nil
	}
	return &parsed, "", nil
}

// Write serializes lock with entries sorted by id and each entry's
// targets sorted by agent, then writes it to lockPath.
func Write(lockPath string, file *File) error {
	sorted := sortedCopy(file)

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(sorted); err != nil {
		return ekind.Newf(ekind.Runtime, "failed to serialize lock file: %v", err)
	}
	if err := os.WriteFile(lockPath, []byte(buf.String()), 0o644); err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	return nil
}

func sortedCopy(file *File) *File {
	out := &File{Version: file.Version, Skills: make([]SkillEntry, len(file.Skills))}
	copy(out.Skills, file.Skills)
	sort.Slice(out.Skills, func(i, j int) bool { return out.Skills[i].ID < out.Skills[j].ID })
	for i := range out.Skills {
		targets := make([]Target, len(out.Skills[i].Targets))
		copy(targets, out.Skills[i].Targets)
		sort.Slice(targets, func(a, b int) bool { return targets[a].Agent < targets[b].Agent })
		out.Skills[i].Targets = targets
	}
	return out
}

// BuildFromConfig builds a fresh lock snapshot from the current config and
// a skill-id -> resolved-commit-SHA map (empty string if a skill's sync
// failed or its commit is otherwise unavailable).
func BuildFromConfig(cfg *config.Config, configDir string, resolvedCommits map[string]string) (*File, error) {
	now := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	entries := make([]SkillEntry, 0, len(cfg.Skills))
	for _, skill := range cfg.Skills {
		targets := make([]Target, 0, len(skill.Targets))
		for _, target := range skill.Targets {
			targetRoot, err := config.ResolveTargetPath(target, configDir)
			if err != nil {
				return nil, err
			}
			targets = append(targets, Target{
				Agent: string(target.Agent),
				Path:  filepath.Join(targetRoot, skill.ID),
			})
		}

		var resolvedVersion string
		if config.IsRegistryModeRepo(skill.Source.Repo) {
			resolvedVersion = skill.Source.Ref
		}

		entries = append(entries, SkillEntry{
			ID:              skill.ID,
			SourceRepo:      skill.Source.Repo,
			SourceSubpath:   skill.Source.Subpath,
			SourceRef:       skill.Source.Ref,
			ResolvedCommit:  resolvedCommits[skill.ID],
			ResolvedVersion: resolvedVersion,
			InstallMode:     string(skill.Install.Mode),
			InstalledAt:     now,
			Targets:         targets,
		})
	}

	return &File{Version: Version, Skills: entries}, nil
}

// FindEntry returns the lock entry with the given skill id, if present.
func FindEntry(file *File, skillID string) (SkillEntry, bool) {
	for _, entry := range file.Skills {
		if entry.ID == skillID {
			return entry, true
		}
	}
	return SkillEntry{}, false
}

// Orphans returns lock entries whose id has no corresponding skill in
// cfg — the set the planner turns into `Remove` plan items and the
// reactor deletes after a successful apply.
func Orphans(file *File, cfg *config.Config) []SkillEntry {
	present := make(map[string]bool, len(cfg.Skills))
	for _, skill := range cfg.Skills {
		present[skill.ID] = true
	}

	var orphans []SkillEntry
	for _, entry := range file.Skills {
		if !present[entry.ID] {
			orphans = append(orphans, entry)
		}
	}
	return orphans
}
