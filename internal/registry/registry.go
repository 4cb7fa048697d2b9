// Package registry resolves named-skill references against cached on-disk
// registry indexes: consult sources in priority order, pick the highest
// non-yanked version matching a semver constraint.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Source is one registry's on-disk cache location. No package in this
// module populates that tree (internal/source syncs skills only); it is
// an operational step outside this package's contract, and Resolve only
// reads it.
type Source struct {
	Name     string
	Priority uint32
	Root     string
}

// Resolved is the outcome of looking up one skill by name.
type Resolved struct {
	RegistryName     string
	RegistryPriority uint32
	Repo             string
	Subpath          string
	Version          string
	GitRef           string
	Commit           string
}

// SortSources orders registry sources by priority descending, then name
// ascending (a stable tiebreak so equal-priority sources are searched
// deterministically).
func SortSources(sources []Source) []Source {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Resolve searches sources in priority order for skillName and selects the
// version matching constraint (empty or "*" means "highest non-yanked").
func Resolve(sources []Source, skillName, constraint string) (*Resolved, error) {
	if strings.TrimSpace(skillName) == "" {
		return nil, ekind.New(ekind.Validation, "skill name must not be empty")
	}

	ordered := SortSources(sources)

	var searched []string
	for _, source := range ordered {
		searched = append(searched, fmt.Sprintf("%s(%d)", source.Name, source.Priority))

		entry, err := loadSkillIndexEntry(source, skillName)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}

		selected, err := selectVersion(entry.versions, constraint)
		if err != nil {
			return nil, err
		}

		return &Resolved{
			RegistryName:     source.Name,
			RegistryPriority: source.Priority,
			Repo:             entry.repo,
			Subpath:          entry.subpath,
			Version:          selected.version.Original(),
			GitRef:           selected.gitRef,
			Commit:           selected.commit,
		}, nil
	}

	return nil, ekind.Newf(ekind.Runtime, "skill `%s` not found in configured registries: %s",
		skillName, strings.Join(searched, ", "))
}

type indexedVersion struct {
	version *semver.Version
	gitRef  string
	commit  string
	yanked  bool
}

type skillIndexEntry struct {
	name     string
	repo     string
	subpath  string
	versions []indexedVersion
}

type rawSkillIndexEntry struct {
	Skill struct {
		Name    string  `toml:"name"`
		Repo    string  `toml:"repo"`
		Subpath *string `toml:"subpath"`
	} `toml:"skill"`
	Versions []struct {
		Version string `toml:"version"`
		Ref     string `toml:"ref"`
		Commit  string `toml:"commit"`
		Yanked  *bool  `toml:"yanked"`
	} `toml:"versions"`
}

func loadSkillIndexEntry(source Source, skillName string) (*skillIndexEntry, error) {
	indexPath, err := skillIndexPath(source.Root, skillName)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ekind.Wrap(ekind.Io, err)
	}

	var decoded rawSkillIndexEntry
	if _, err := toml.Decode(string(raw), &decoded); err != nil {
		return nil, ekind.Newf(ekind.Runtime, "failed to parse registry index entry `%s`: %v", indexPath, err)
	}

	if decoded.Skill.Name != skillName {
		return nil, ekind.Newf(ekind.Runtime, "registry entry `%s` declares skill `%s` but expected `%s`",
			indexPath, decoded.Skill.Name, skillName)
	}

	subpath := "."
	if decoded.Skill.Subpath != nil {
		subpath = *decoded.Skill.Subpath
	}

	versions := make([]indexedVersion, 0, len(decoded.Versions))
	for _, item := range decoded.Versions {
		parsed, err := semver.NewVersion(item.Version)
		if err != nil {
			return nil, ekind.Newf(ekind.Runtime, "registry entry `%s` contains invalid version `%s`: %v",
				indexPath, item.Version, err)
		}
		yanked := item.Yanked != nil && *item.Yanked
		versions = append(versions, indexedVersion{
			version: parsed,
			gitRef:  item.Ref,
			commit:  item.Commit,
			yanked:  yanked,
		})
	}

	return &skillIndexEntry{
		name:     decoded.Skill.Name,
		repo:     decoded.Skill.Repo,
		subpath:  subpath,
		versions: versions,
	}, nil
}

func skillIndexPath(registryRoot, skillName string) (string, error) {
	if skillName == "" {
		return "", ekind.New(ekind.Validation, "skill name must not be empty")
	}
	first := strings.ToLower(string([]rune(skillName)[:1]))
	return filepath.Join(registryRoot, "index", first, skillName+".toml"), nil
}

func selectVersion(versions []indexedVersion, constraint string) (*indexedVersion, error) {
	candidates := make([]indexedVersion, 0, len(versions))
	for _, v := range versions {
		if !v.yanked {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil, ekind.New(ekind.Runtime, "no non-yanked versions are available")
	}

	trimmed := strings.TrimSpace(constraint)
	if trimmed == "" || trimmed == "*" {
		return highest(candidates), nil
	}

	if exact, err := semver.NewVersion(trimmed); err == nil {
		var matched *indexedVersion
		for i := range candidates {
			if candidates[i].version.Equal(exact) {
				if matched == nil || candidates[i].version.GreaterThan(matched.version) {
					matched = &candidates[i]
				}
			}
		}
		if matched == nil {
			return nil, ekind.Newf(ekind.Runtime, "no version matched exact constraint `%s`; available versions: %s",
				trimmed, availableVersions(versions))
		}
		return matched, nil
	}

	req, err := semver.NewConstraint(trimmed)
	if err != nil {
		return nil, ekind.Newf(ekind.Validation, "invalid version constraint `%s`: %v", trimmed, err)
	}
	var matched *indexedVersion
	for i := range candidates {
		if req.Check(candidates[i].version) {
			if matched == nil || candidates[i].version.GreaterThan(matched.version) {
				matched = &candidates[i]
			}
		}
	}
	if matched == nil {
		return nil, ekind.Newf(ekind.Runtime, "no version matched constraint `%s`; available versions: %s",
			trimmed, availableVersions(versions))
	}
	return matched, nil
}

func highest(candidates []indexedVersion) *indexedVersion {
	best := &candidates[0]
	for i := 1; i < len(candidates); i++ {
		if candidates[i].version.GreaterThan(best.version) {
			best = &candidates[i]
		}
	}
	return best
}

func availableVersions(versions []indexedVersion) string {
	var available []*semver.Version
	for _, v := range versions {
		if !v.yanked {
			available = append(available, v.version)
		}
	}
	sort.Sort(sort.Reverse(semver.Collection(available)))
	parts := make([]string, len(available))
	for i, v := range available {
		parts[i] = v.Original()
	}
	return strings.Join(parts, ", ")
}

// SourcesFromConfig builds registry sources from loaded config, rooted
// under storageRoot/registries/<name> per the documented cache layout.
func SourcesFromConfig(cfg *config.Config, storageRoot string) []Source {
	sources := make([]Source, 0, len(cfg.Registries))
	for name, reg := range cfg.Registries {
		sources = append(sources, Source{
			Name:     name,
			Priority: reg.Priority,
			Root:     filepath.Join(storageRoot, "registries", name),
		})
	}
	return sources
}
