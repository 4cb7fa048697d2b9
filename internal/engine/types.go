package engine

import (
	"github.com/edenpkg/edenpkg/internal/lock"
	"github.com/edenpkg/edenpkg/internal/plan"
	"github.com/edenpkg/edenpkg/internal/source"
	"github.com/edenpkg/edenpkg/internal/verify"
)

// LoadResult is a validated config plus the directory it was loaded
// relative to and any non-fatal loader warnings.
type LoadResult struct {
	ConfigPath string
	ConfigDir  string
	Warnings   []string
}

// PlanResult is a read-only plan run: the computed items and the prior
// lock they were diffed against (an empty, version-1 lock when none
// existed on disk).
type PlanResult struct {
	Items       []plan.Item
	PriorLock   *lock.File
	LockWarning string
}

// ApplyOptions tunes one apply/repair run.
type ApplyOptions struct {
	// ConcurrencyOverride, if non-nil, overrides [reactor].concurrency
	// for this run only (the CLI's --concurrency flag).
	ConcurrencyOverride *int
	// DockerBin overrides the docker binary path; empty resolves "docker"
	// from PATH.
	DockerBin string
}

// ApplyResult is the full outcome of one apply/repair run.
type ApplyResult struct {
	Sync     source.Summary
	Items    []plan.Item
	Created  int
	Updated  int
	Noop     int
	Conflict int
	Removed  int
	Failed   int
	Lock     *lock.File
}

// skillTally accumulates one skill's Phase B materialization counts;
// reactor.RunPhaseA's per-task result type when apply fans Phase B out
// across skills.
type skillTally struct {
	created int
	updated int
}

// DoctorOptions tunes one doctor run.
type DoctorOptions struct {
	Strict    bool
	DockerBin string
	// IgnorePatterns are doublestar globs (the --ignore flag); findings
	// whose target path matches one are suppressed. The config directory's
	// .edenignore file is consulted in addition to these.
	IgnorePatterns []string
}

// DoctorResult is the full outcome of one doctor run.
type DoctorResult struct {
	Findings []verify.Finding
	Summary  verify.Summary
}
