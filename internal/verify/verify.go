// Package verify implements the doctor subsystem: per-skill checks
// producing findings with stable codes and remediation hints.
package verify

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/edenpkg/edenpkg/internal/adapter"
	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/discovery"
	"github.com/edenpkg/edenpkg/internal/paths"
	"github.com/edenpkg/edenpkg/internal/registry"
	"github.com/edenpkg/edenpkg/internal/safety"
)

// Severity classifies a Finding's urgency.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Stable finding codes.
const (
	CodeSourceMissing          = "SOURCE_MISSING"
	CodeTargetMissing          = "TARGET_MISSING"
	CodeTargetNotSymlink       = "TARGET_NOT_SYMLINK"
	CodeSymlinkPointsElsewhere = "SYMLINK_POINTS_ELSEWHERE"
	CodeRegistryStale          = "REGISTRY_STALE"
	CodeDockerNotFound         = "DOCKER_NOT_FOUND"
	CodeAdapterHealthFail      = "ADAPTER_HEALTH_FAIL"
	CodeLicenseUnknown         = "LICENSE_UNKNOWN"
	CodeRiskReviewRequired     = "RISK_REVIEW_REQUIRED"
	CodeNoExecMetadataOnly     = "NO_EXEC_METADATA_ONLY"
)

// Finding is one diagnostic produced by a doctor run.
type Finding struct {
	Code        string
	Severity    Severity
	SkillID     string
	TargetPath  string
	Message     string
	Remediation string
}

// Summary aggregates a finding list by severity, for the doctor JSON
// payload's `summary` object.
type Summary struct {
	Total   int
	Error   int
	Warning int
}

// Summarize counts findings by severity.
func Summarize(findings []Finding) Summary {
	s := Summary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			s.Error++
		case SeverityWarning:
			s.Warning++
		}
	}
	return s
}

// Options tunes which collaborator checks Run performs beyond the four
// filesystem checks every skill's verify.checks can name.
type Options struct {
	// Scanner backs LICENSE_UNKNOWN/RISK_REVIEW_REQUIRED/NO_EXEC_METADATA_ONLY.
	// Defaults to safety.NoopScanner when nil.
	Scanner safety.Scanner
	// RegistrySources, when non-nil, makes Run check each referenced
	// registry's .eden-last-sync staleness.
	RegistrySources []registry.Source
	// DockerBin overrides the docker binary path for adapter health checks.
	DockerBin string
	// IgnorePatterns suppresses findings whose target path matches any of
	// the given doublestar globs (the doctor's --ignore flag).
	IgnorePatterns []string
	// Ignorer, when non-nil, suppresses findings whose target path it
	// matches. Loaded from the config directory's .edenignore file.
	Ignorer discovery.Ignorer
	// Now is the clock Run uses for staleness checks; defaults to time.Now.
	Now time.Time
}

// Run executes every enabled skill's verify checks, plus the
// collaborator-backed checks (registry staleness, adapter health, safety
// scan) that a pure filesystem walk can't answer on its own.
func Run(ctx context.Context, cfg *config.Config, configDir string, opts Options) ([]Finding, error) {
	if opts.Scanner == nil {
		opts.Scanner = safety.NoopScanner{}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	storageRoot, err := paths.Resolve(cfg.StorageRoot, configDir)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, skill := range cfg.Skills {
		if !skill.Verify.Enabled {
			continue
		}

		sourcePath := paths.NormalizeLexical(filepath.Join(storageRoot, skill.ID, skill.Source.Subpath))
		if _, err := os.Stat(sourcePath); err != nil && errors.Is(err, fs.ErrNotExist) {
			findings = append(findings, Finding{
				Code:        CodeSourceMissing,
				Severity:    SeverityError,
				SkillID:     skill.ID,
				TargetPath:  sourcePath,
				Message:     "source content is missing from the store",
				Remediation: "run `apply` to re-sync the skill source",
			})
		}

		for _, target := range skill.Targets {
			targetRoot, err := config.ResolveTargetPath(target, configDir)
			if err != nil {
				return nil, err
			}
			targetPath := paths.NormalizeLexical(filepath.Join(targetRoot, skill.ID))

			for _, check := range skill.Verify.Checks {
				f, ok := runFilesystemCheck(check, skill.ID, skill.Install.Mode, sourcePath, targetPath)
				if ok {
					findings = append(findings, f)
				}
			}

			if kind, _, parseErr := adapter.ParseEnvironment(target.Environment); parseErr == nil && kind == adapter.KindDocker {
				if f, ok := checkAdapterHealth(ctx, skill.ID, targetPath, target.Environment, opts.DockerBin); ok {
					findings = append(findings, f)
				}
			}
		}

		if report, err := opts.Scanner.Analyze(ctx, skill.ID, sourcePath); err == nil {
			if !report.LicenseKnown {
				findings = append(findings, Finding{
					Code:        CodeLicenseUnknown,
					Severity:    SeverityWarning,
					SkillID:     skill.ID,
					TargetPath:  sourcePath,
					Message:     "unable to determine the skill's license",
					Remediation: "inspect the repository manually and record its license",
				})
			}
			if report.RiskReviewNeed {
				findings = append(findings, Finding{
					Code:        CodeRiskReviewRequired,
					Severity:    SeverityWarning,
					SkillID:     skill.ID,
					TargetPath:  sourcePath,
					Message:     "skill content was flagged for manual risk review",
					Remediation: "review the skill's contents before trusting it in an agent session",
				})
			}
			if skill.Safety.NoExecMetadataOnly {
				findings = append(findings, Finding{
					Code:        CodeNoExecMetadataOnly,
					Severity:    SeverityWarning,
					SkillID:     skill.ID,
					TargetPath:  sourcePath,
					Message:     "skill is marked safety.no_exec_metadata_only; install does not filter its content, so any executables in the source are installed",
					Remediation: "disable safety.no_exec_metadata_only if the skill's executables are trusted",
				})
			}
		}
	}

	for _, source := range opts.RegistrySources {
		lastSyncPath := filepath.Join(source.Root, ".eden-last-sync")
		stale, since, err := registry.StaleCheck(lastSyncPath, now, registry.StaleThreshold)
		if err != nil {
			continue
		}
		if stale {
			findings = append(findings, Finding{
				Code:        CodeRegistryStale,
				Severity:    SeverityWarning,
				SkillID:     "",
				TargetPath:  source.Root,
				Message:     "registry `" + source.Name + "` has not synced in " + since.String(),
				Remediation: "re-sync the registry to refresh its index",
			})
		}
	}

	if len(opts.IgnorePatterns) > 0 || opts.Ignorer != nil {
		kept := findings[:0]
		for _, f := range findings {
			if opts.Ignorer != nil && opts.Ignorer.Match(f.TargetPath) {
				continue
			}
			matched, err := safety.MatchesAnyGlob(opts.IgnorePatterns, f.TargetPath)
			if err != nil {
				return nil, err
			}
			if !matched {
				kept = append(kept, f)
			}
		}
		findings = kept
	}

	return findings, nil
}

func runFilesystemCheck(check string, skillID string, mode config.InstallMode, sourcePath, targetPath string) (Finding, bool) {
	switch check {
	case config.CheckPathExists:
		if _, err := os.Lstat(targetPath); err != nil {
			return Finding{
				Code: CodeTargetMissing, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
				Message: "target path does not exist", Remediation: "run `apply` to install the skill",
			}, true
		}
	case config.CheckIsSymlink:
		info, err := os.Lstat(targetPath)
		if err != nil {
			return Finding{
				Code: CodeTargetMissing, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
				Message: "target path does not exist", Remediation: "run `apply` to install the skill",
			}, true
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return Finding{
				Code: CodeTargetNotSymlink, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
				Message: "target exists but is not a symlink", Remediation: "run `repair` to reconcile the target",
			}, true
		}
	case config.CheckTargetResolves:
		raw, err := os.Readlink(targetPath)
		if err != nil {
			return Finding{
				Code: CodeSymlinkPointsElsewhere, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
				Message: "target symlink is missing or unreadable", Remediation: "run `repair` to reconcile the target",
			}, true
		}
		resolved := raw
		if !filepath.IsAbs(raw) {
			resolved = filepath.Join(filepath.Dir(targetPath), raw)
		}
		resolved = paths.NormalizeLexical(resolved)
		if resolved != paths.NormalizeLexical(sourcePath) {
			// Tolerate aliasing directories via real-path comparison.
			if realTarget, err := filepath.EvalSymlinks(targetPath); err == nil {
				if realSource, err := filepath.EvalSymlinks(sourcePath); err == nil && realTarget == realSource {
					return Finding{}, false
				}
			}
			return Finding{
				Code: CodeSymlinkPointsElsewhere, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
				Message:     "symlink resolves to `" + resolved + "` but expected `" + paths.NormalizeLexical(sourcePath) + "`",
				Remediation: "run `repair` to reconcile the target",
			}, true
		}
	case config.CheckContentPresent:
		if _, err := os.Lstat(targetPath); err != nil {
			return Finding{
				Code: CodeTargetMissing, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
				Message: "target content is missing", Remediation: "run `apply` to install the skill",
			}, true
		}
	}
	return Finding{}, false
}

func checkAdapterHealth(ctx context.Context, skillID, targetPath, environment, dockerBin string) (Finding, bool) {
	a, err := adapter.New(environment, dockerBin)
	if err != nil {
		return Finding{
			Code: CodeDockerNotFound, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
			Message: err.Error(), Remediation: "install Docker or ensure `docker` is on PATH",
		}, true
	}
	if err := a.HealthCheck(ctx); err != nil {
		return Finding{
			Code: CodeAdapterHealthFail, Severity: SeverityError, SkillID: skillID, TargetPath: targetPath,
			Message: err.Error(), Remediation: "start the target container and re-run doctor",
		}, true
	}
	return Finding{}, false
}
