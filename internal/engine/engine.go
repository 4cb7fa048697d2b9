// Package engine orchestrates the reconciliation engine's packages
// (config, registry, source, plan, reactor, adapter, lock, verify) into
// the plan/apply/repair/doctor operations the CLI dispatches to.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/edenpkg/edenpkg/internal/adapter"
	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/discovery"
	"github.com/edenpkg/edenpkg/internal/ekind"
	"github.com/edenpkg/edenpkg/internal/lock"
	"github.com/edenpkg/edenpkg/internal/paths"
	"github.com/edenpkg/edenpkg/internal/plan"
	"github.com/edenpkg/edenpkg/internal/reactor"
	"github.com/edenpkg/edenpkg/internal/registry"
	"github.com/edenpkg/edenpkg/internal/source"
	"github.com/edenpkg/edenpkg/internal/verify"
)

// LoadConfig reads and validates the config at configPath, logging any
// unknown-top-level-key warnings the loader collected.
func LoadConfig(configPath string, strict bool) (*config.Config, LoadResult, error) {
	loaded, err := config.LoadFromFile(configPath, config.LoadOptions{Strict: strict})
	if err != nil {
		return nil, LoadResult{}, err
	}
	for _, warning := range loaded.Warnings {
		slog.Warn(warning)
	}
	return &loaded.Config, LoadResult{
		ConfigPath: configPath,
		ConfigDir:  filepath.Dir(configPath),
		Warnings:   loaded.Warnings,
	}, nil
}

// Plan computes the full reconciliation plan for cfg without touching the
// filesystem: one item per declared (skill, target), plus one Remove item
// per orphaned lock entry.
func Plan(cfg *config.Config, configDir, configPath string) (PlanResult, error) {
	priorLock, warning, err := lock.Read(lock.PathForConfig(configPath))
	if err != nil {
		return PlanResult{}, err
	}
	if warning != "" {
		slog.Warn(warning)
	}

	items, err := plan.Build(cfg, configDir, priorLock)
	if err != nil {
		return PlanResult{}, err
	}
	return PlanResult{Items: items, PriorLock: priorLock, LockWarning: warning}, nil
}

// Apply runs a full reconciliation: Phase A source sync, planning, Phase B
// materialization, orphan cleanup, and lock write-back.
func Apply(ctx context.Context, cfg *config.Config, configDir, configPath string, opts ApplyOptions) (ApplyResult, error) {
	storageRoot, err := paths.Resolve(cfg.StorageRoot, configDir)
	if err != nil {
		return ApplyResult{}, err
	}

	lockPath := lock.PathForConfig(configPath)
	priorLock, warning, err := lock.Read(lockPath)
	if err != nil {
		return ApplyResult{}, err
	}
	if warning != "" {
		slog.Warn(warning)
	}

	repos, refs, err := resolveRegistrySkills(cfg, storageRoot)
	if err != nil {
		return ApplyResult{}, err
	}

	skillIDs := make([]string, len(cfg.Skills))
	for i, skill := range cfg.Skills {
		skillIDs[i] = skill.ID
	}
	tasks := source.BuildTasks(storageRoot, skillIDs, repos, refs)

	concurrency, err := config.ResolveConcurrency(cfg, opts.ConcurrencyOverride)
	if err != nil {
		return ApplyResult{}, err
	}
	r, err := reactor.New(concurrency)
	if err != nil {
		return ApplyResult{}, err
	}

	syncSummary, err := source.Sync(ctx, r, storageRoot, tasks)
	if err != nil {
		return ApplyResult{}, err
	}

	failedSkills := make(map[string]bool, len(syncSummary.Failures))
	for _, failure := range syncSummary.Failures {
		failedSkills[failure.SkillID] = true
		slog.Warn("source sync failed", "skill", failure.SkillID, "stage", failure.Stage, "detail", failure.Detail)
	}

	items, err := plan.Build(cfg, configDir, priorLock)
	if err != nil {
		return ApplyResult{}, err
	}

	environments, err := targetEnvironments(cfg, configDir)
	if err != nil {
		return ApplyResult{}, err
	}

	result := ApplyResult{Sync: syncSummary, Items: items, Failed: len(syncSummary.Failures)}

	// Phase B is sequential per skill but parallel across skills: group
	// mutating items by skill id and hand the groups to the same reactor
	// that bounded Phase A's concurrency, so a skill with several targets
	// never races itself while unrelated skills' materializations overlap.
	bySkill := make(map[string][]plan.Item)
	var skillOrder []string
	var removeItems []plan.Item
	for _, item := range items {
		switch item.Action {
		case plan.ActionRemove:
			removeItems = append(removeItems, item)
			continue
		case plan.ActionNoop:
			result.Noop++
			continue
		case plan.ActionConflict:
			result.Conflict++
			continue
		}

		if failedSkills[item.SkillID] {
			slog.Warn("skipping materialization for skill whose source sync failed", "skill", item.SkillID)
			continue
		}

		if _, seen := bySkill[item.SkillID]; !seen {
			skillOrder = append(skillOrder, item.SkillID)
		}
		bySkill[item.SkillID] = append(bySkill[item.SkillID], item)
	}

	outcomes, err := reactor.RunPhaseA(ctx, r, skillOrder, func(taskCtx context.Context, skillID string) (skillTally, error) {
		var tally skillTally
		for _, item := range bySkill[skillID] {
			environment := environments[item.SkillID+"\x00"+item.TargetPath]
			a, adapterErr := adapter.New(environment, opts.DockerBin)
			if adapterErr != nil {
				return tally, adapterErr
			}
			if installErr := a.Install(taskCtx, item.SourcePath, item.TargetPath, config.InstallMode(item.InstallMode)); installErr != nil {
				return tally, installErr
			}
			switch item.Action {
			case plan.ActionCreate:
				tally.created++
			case plan.ActionUpdate:
				tally.updated++
			}
		}
		return tally, nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return ApplyResult{}, outcome.Err
		}
		result.Created += outcome.Result.created
		result.Updated += outcome.Result.updated
	}

	// Orphan removal runs only after every materialization has finished,
	// and drops both the recorded target path(s) and the skill's
	// content-store working tree under storage_root.
	for _, item := range removeItems {
		if err := os.RemoveAll(item.TargetPath); err != nil && !os.IsNotExist(err) {
			return ApplyResult{}, ekind.Wrap(ekind.Io, err)
		}
		result.Removed++
	}
	for _, orphan := range lock.Orphans(priorLock, cfg) {
		repoDir := paths.NormalizeLexical(filepath.Join(storageRoot, orphan.ID))
		if err := os.RemoveAll(repoDir); err != nil && !os.IsNotExist(err) {
			return ApplyResult{}, ekind.Wrap(ekind.Io, err)
		}
	}

	newLock, err := lock.BuildFromConfig(cfg, configDir, syncSummary.Commits)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := lock.Write(lockPath, newLock); err != nil {
		return ApplyResult{}, err
	}
	result.Lock = newLock

	return result, nil
}

// Repair re-runs the same reconciliation Apply does. It exists as a
// distinct operator-facing entry point for fixing drifted targets even
// though its mechanics are identical to `apply` — the planner already
// treats a symlink pointing at the wrong target as `Update` regardless
// of which command asked for the plan.
func Repair(ctx context.Context, cfg *config.Config, configDir, configPath string, opts ApplyOptions) (ApplyResult, error) {
	return Apply(ctx, cfg, configDir, configPath, opts)
}

// Doctor runs every enabled skill's verify checks plus the
// registry-staleness and adapter-health collaborator checks.
// In strict mode, any finding is reported as a Conflict error so the CLI
// exits 3, while still returning the full finding list for display.
func Doctor(ctx context.Context, cfg *config.Config, configDir string, opts DoctorOptions) (DoctorResult, error) {
	storageRoot, err := paths.Resolve(cfg.StorageRoot, configDir)
	if err != nil {
		return DoctorResult{}, err
	}

	ignorer, _, err := discovery.LoadIgnoreFile(filepath.Join(configDir, discovery.IgnoreFileName))
	if err != nil {
		return DoctorResult{}, ekind.Wrap(ekind.Io, err)
	}

	findings, err := verify.Run(ctx, cfg, configDir, verify.Options{
		RegistrySources: registry.SourcesFromConfig(cfg, storageRoot),
		DockerBin:       opts.DockerBin,
		IgnorePatterns:  opts.IgnorePatterns,
		Ignorer:         ignorer,
	})
	if err != nil {
		return DoctorResult{}, err
	}

	result := DoctorResult{Findings: findings, Summary: verify.Summarize(findings)}
	if opts.Strict && result.Summary.Total > 0 {
		return result, ekind.Newf(ekind.Conflict, "doctor found %d finding(s) in strict mode (%d error, %d warning)",
			result.Summary.Total, result.Summary.Error, result.Summary.Warning)
	}
	return result, nil
}

// Summarize counts plan items by action, for the `create=.. update=..
// noop=.. conflict=..` summary line the CLI prints.
func Summarize(items []plan.Item) (created, updated, noop, conflict, removed int) {
	for _, item := range items {
		switch item.Action {
		case plan.ActionCreate:
			created++
		case plan.ActionUpdate:
			updated++
		case plan.ActionNoop:
			noop++
		case plan.ActionConflict:
			conflict++
		case plan.ActionRemove:
			removed++
		}
	}
	return
}

// resolveRegistrySkills lowers every registry-mode skill's sentinel repo
// ("registry://<name>") and semver constraint into a concrete git URL and
// ref by consulting the configured registry sources. URL-mode
// skills pass through unchanged. The lock file keeps recording the
// sentinel/constraint pair (internal/lock.BuildFromConfig reads cfg
// directly); this resolution only feeds internal/source's sync tasks.
func resolveRegistrySkills(cfg *config.Config, storageRoot string) (repos, refs map[string]string, err error) {
	sources := registry.SourcesFromConfig(cfg, storageRoot)
	repos = make(map[string]string, len(cfg.Skills))
	refs = make(map[string]string, len(cfg.Skills))

	for _, skill := range cfg.Skills {
		if !config.IsRegistryModeRepo(skill.Source.Repo) {
			repos[skill.ID] = skill.Source.Repo
			refs[skill.ID] = skill.Source.Ref
			continue
		}

		name, _ := config.DecodeRegistryModeRepo(skill.Source.Repo)
		candidates := sources
		if name != "" {
			candidates = nil
			for _, s := range sources {
				if s.Name == name {
					candidates = append(candidates, s)
				}
			}
		}

		resolved, resolveErr := registry.Resolve(candidates, skill.ID, skill.Source.Ref)
		if resolveErr != nil {
			return nil, nil, resolveErr
		}
		repos[skill.ID] = resolved.Repo
		refs[skill.ID] = resolved.GitRef
	}

	return repos, refs, nil
}

// targetEnvironments maps "<skill id>\x00<resolved target path>" to that
// target's environment string, using the same path resolution plan.Build
// uses so the keys line up with plan.Item.TargetPath. Plan items don't
// carry environment themselves (the planner is pure config+filesystem
// diffing); Phase B materialization needs it to pick an adapter.
func targetEnvironments(cfg *config.Config, configDir string) (map[string]string, error) {
	out := make(map[string]string)
	for _, skill := range cfg.Skills {
		for _, target := range skill.Targets {
			targetRoot, err := config.ResolveTargetPath(target, configDir)
			if err != nil {
				return nil, err
			}
			targetPath := paths.NormalizeLexical(filepath.Join(targetRoot, skill.ID))
			out[skill.ID+"\x00"+targetPath] = target.Environment
		}
	}
	return out, nil
}
