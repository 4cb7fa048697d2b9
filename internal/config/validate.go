package config

import (
	"github.com/edenpkg/edenpkg/internal/ekind"
	"github.com/edenpkg/edenpkg/internal/paths"
)

// ValidateConfig re-checks an already-constructed Config against the core
// rules intoConfig applies while decoding TOML: version, storage root,
// unique ids, repo URL or semver constraint, targets, and non-empty verify
// checks. It does not re-check reactor concurrency, registry references,
// install mode, or verify check names. Callers that build or mutate a
// Config outside the loader (tests, CLI merge of flag overrides) should
// run it before handing the config to the reactor.
func ValidateConfig(cfg *Config, configDir string) error {
	if cfg.Version != 1 {
		return ekind.Newf(ekind.Validation, "version: expected 1, got %d", cfg.Version)
	}

	if _, err := paths.Resolve(cfg.StorageRoot, configDir); err != nil {
		return ekind.Newf(ekind.Validation, "storage.root: invalid path: %v", err)
	}

	if len(cfg.Skills) == 0 {
		return ekind.New(ekind.Validation, "skills: must contain at least one skill")
	}

	ids := map[string]bool{}
	for idx, skill := range cfg.Skills {
		skillPath := fieldIndex("skills", idx)
		if ids[skill.ID] {
			return ekind.Validationf(CodeDuplicateSkillID, skillPath+".id", "duplicate id `%s`", skill.ID)
		}
		ids[skill.ID] = true

		if IsRegistryModeRepo(skill.Source.Repo) {
			if err := validateSemverConstraint(skill.Source.Ref, skillPath+".version"); err != nil {
				return err
			}
		} else if err := validateRepoURL(skill.Source.Repo, skillPath+".source.repo"); err != nil {
			return err
		}

		if len(skill.Targets) == 0 {
			return ekind.Newf(ekind.Validation, "%s.targets: must contain at least one target", skillPath)
		}
		for targetIdx, target := range skill.Targets {
			targetPath := fieldIndex(skillPath+".targets", targetIdx)
			if target.Agent == AgentCustom && target.Path == "" {
				return ekind.Newf(ekind.Validation, "%s.path: required when agent=custom", targetPath)
			}
			if target.Path != "" {
				if _, err := paths.Resolve(target.Path, configDir); err != nil {
					return ekind.Newf(ekind.Validation, "%s.path: invalid path: %v", targetPath, err)
				}
			}
			if target.ExpectedPath != "" {
				if _, err := paths.Resolve(target.ExpectedPath, configDir); err != nil {
					return ekind.Newf(ekind.Validation, "%s.expected_path: invalid path: %v", targetPath, err)
				}
			}
			if err := validateEnvironment(target.Environment, targetPath+".environment"); err != nil {
				return err
			}
		}

		if skill.Verify.Enabled && len(skill.Verify.Checks) == 0 {
			return ekind.Newf(ekind.Validation, "%s.verify.checks: must not be empty when verify.enabled=true", skillPath)
		}
	}

	return nil
}
