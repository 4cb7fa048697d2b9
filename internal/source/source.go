// Package source implements the content store: for each skill, ensure a
// local git working tree at <storage_root>/<skill_id> is present and
// checked out at the declared ref, reporting Cloned|Updated|Skipped|Failed
// outcomes. Git is invoked via os/exec rather than vendoring a git
// implementation.
package source

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/edenpkg/edenpkg/internal/paths"
	"github.com/edenpkg/edenpkg/internal/reactor"
)

// FailureStage classifies which git operation a sync failure occurred in.
type FailureStage string

const (
	StageClone    FailureStage = "clone"
	StageFetch    FailureStage = "fetch"
	StageCheckout FailureStage = "checkout"
	StageRuntime  FailureStage = "runtime"
)

// Outcome is the per-skill disposition of a successful sync.
type Outcome string

const (
	OutcomeCloned  Outcome = "cloned"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// Failure describes one skill whose sync did not succeed.
type Failure struct {
	SkillID string
	Stage   FailureStage
	RepoDir string
	Detail  string
}

// Result is one skill's sync outcome: either a successful Outcome with
// its resolved HEAD commit, or a Failure.
type Result struct {
	SkillID        string
	Outcome        Outcome
	ResolvedCommit string
	Failure        *Failure
}

// Task is one skill's sync request, already lowered to a real git URL
// (registry-mode references are resolved to a concrete repo/ref upstream
// of this package).
type Task struct {
	SkillID string
	RepoURL string
	Ref     string
	RepoDir string
}

// Summary aggregates the outcomes of a Sync run.
type Summary struct {
	Cloned   int
	Updated  int
	Skipped  int
	Failed   int
	Failures []Failure
	// Commits maps skill id to resolved HEAD commit SHA, for skills that
	// synced successfully. Consumed by internal/lock.BuildFromConfig.
	Commits map[string]string
}

// BuildTasks derives sync tasks for every skill from the resolved config,
// rooting each skill's working tree at storageRoot/<skill_id>.
func BuildTasks(storageRoot string, skillIDs []string, repos, refs map[string]string) []Task {
	tasks := make([]Task, 0, len(skillIDs))
	for _, id := range skillIDs {
		tasks = append(tasks, Task{
			SkillID: id,
			RepoURL: repos[id],
			Ref:     refs[id],
			RepoDir: paths.NormalizeLexical(filepath.Join(storageRoot, id)),
		})
	}
	return tasks
}

// Sync ensures every task's repo directory exists and is checked out at
// its declared ref, running up to r's concurrency limit in parallel.
// A per-skill failure does not abort its siblings.
func Sync(ctx context.Context, r *reactor.Reactor, storageRoot string, tasks []Task) (Summary, error) {
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return Summary{}, err
	}

	outcomes, err := reactor.RunPhaseA(ctx, r, tasks, func(taskCtx context.Context, task Task) (Result, error) {
		return syncOne(taskCtx, task), nil
	})
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Commits: map[string]string{}}
	for _, outcome := range outcomes {
		result := outcome.Result
		switch {
		case result.Failure != nil:
			summary.Failed++
			summary.Failures = append(summary.Failures, *result.Failure)
		case result.Outcome == OutcomeCloned:
			summary.Cloned++
			summary.Commits[result.SkillID] = result.ResolvedCommit
		case result.Outcome == OutcomeUpdated:
			summary.Updated++
			summary.Commits[result.SkillID] = result.ResolvedCommit
		case result.Outcome == OutcomeSkipped:
			summary.Skipped++
			summary.Commits[result.SkillID] = result.ResolvedCommit
		}
	}
	return summary, nil
}

func syncOne(ctx context.Context, task Task) Result {
	repoExists := dotGitExists(task.RepoDir)

	var operation func() (Outcome, error)
	if repoExists {
		operation = func() (Outcome, error) { return updateRepo(task.RepoDir, task.Ref) }
	} else {
		operation = func() (Outcome, error) { return cloneRepo(task.RepoURL, task.Ref, task.RepoDir) }
	}

	outcome, err := reactor.RunBlocking(ctx, "sync source `"+task.SkillID+"`", operation)
	if err != nil {
		stage := StageRuntime
		if se, ok := err.(*stageError); ok {
			stage = se.stage
		}
		return Result{
			SkillID: task.SkillID,
			Failure: &Failure{SkillID: task.SkillID, Stage: stage, RepoDir: task.RepoDir, Detail: err.Error()},
		}
	}

	commit, _ := readHeadSHA(task.RepoDir)
	return Result{SkillID: task.SkillID, Outcome: outcome, ResolvedCommit: commit}
}

type stageError struct {
	stage  FailureStage
	detail string
}

func (e *stageError) Error() string { return e.detail }

func dotGitExists(repoDir string) bool {
	_, err := os.Stat(filepath.Join(repoDir, ".git"))
	return err == nil
}

func cloneRepo(repoURL, ref, repoDir string) (Outcome, error) {
	if parent := filepath.Dir(repoDir); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", &stageError{stage: StageClone, detail: err.Error()}
		}
	}

	_, branchErr := runGit("", "clone", "--depth", "1", "--branch", ref, repoURL, repoDir)
	if branchErr == nil {
		return OutcomeCloned, nil
	}

	if _, err := runGit("", "clone", repoURL, repoDir); err != nil {
		return "", &stageError{stage: StageClone, detail: "branch clone attempt failed: " + branchErr.Error() + "; fallback clone attempt failed: " + err.Error()}
	}

	if _, err := checkoutRef(repoDir, ref); err != nil {
		return "", err
	}
	return OutcomeCloned, nil
}

func updateRepo(repoDir, ref string) (Outcome, error) {
	headBefore, _ := readHeadSHA(repoDir)

	if _, err := runGit(repoDir, "fetch", "--all", "--prune"); err != nil {
		return "", &stageError{stage: StageFetch, detail: err.Error()}
	}

	if _, err := checkoutRef(repoDir, ref); err != nil {
		return "", err
	}

	// Fast-forward pull is best-effort: a detached commit/tag ref may not
	// pull, and absence of forward progress is not itself an error.
	_, _ = runGit(repoDir, "pull", "--ff-only", "origin", ref)

	headAfter, _ := readHeadSHA(repoDir)
	if headBefore != "" && headBefore == headAfter {
		return OutcomeSkipped, nil
	}
	return OutcomeUpdated, nil
}

func checkoutRef(repoDir, ref string) (string, error) {
	out, err := runGit(repoDir, "checkout", ref)
	if err != nil {
		return "", &stageError{stage: StageCheckout, detail: err.Error()}
	}
	return out, nil
}

func readHeadSHA(repoDir string) (string, error) {
	out, err := runGit(repoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	sha := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if sha == "" {
		return "", nil
	}
	return sha, nil
}

// runGit invokes `git` (with `-C repoDir` when repoDir is non-empty),
// returning trimmed stdout on success or a detailed error (carrying both
// stdout and stderr) on failure.
func runGit(repoDir string, args ...string) (string, error) {
	fullArgs := args
	if repoDir != "" {
		fullArgs = append([]string{"-C", repoDir}, args...)
	}

	cmd := exec.Command("git", fullArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &gitError{args: fullArgs, stdout: stdout.String(), stderr: stderr.String(), err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

type gitError struct {
	args           []string
	stdout, stderr string
	err            error
}

func (e *gitError) Error() string {
	return "git " + strings.Join(e.args, " ") + " failed: " + e.err.Error() + " stderr=`" + strings.TrimSpace(e.stderr) + "` stdout=`" + strings.TrimSpace(e.stdout) + "`"
}

func (e *gitError) Unwrap() error { return e.err }
