// Package plan compares declared config, stored lock, and on-disk target
// state to produce one PlanItem per (skill, target), without mutating the
// filesystem. Planning is total: any situation the planner
// cannot confidently resolve becomes a Conflict item rather than an error,
// so `plan`/`doctor` remain inspectable even over messy host state.
package plan

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/lock"
	"github.com/edenpkg/edenpkg/internal/paths"
)

// Action is the reconciliation decision for one (skill, target) pair.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionNoop     Action = "noop"
	ActionConflict Action = "conflict"
	ActionRemove   Action = "remove"
)

// Item is one proposed action, with human-readable reasons explaining it.
type Item struct {
	SkillID     string
	SourcePath  string
	TargetPath  string
	InstallMode string
	Agent       string
	Action      Action
	Reasons     []string
}

// Build computes the full plan for cfg: one Create/Update/Noop/Conflict
// item per declared (skill, target), plus one Remove item per lock entry
// whose skill id no longer appears in cfg.
// priorLock may be nil, meaning no lock file exists yet.
func Build(cfg *config.Config, configDir string, priorLock *lock.File) ([]Item, error) {
	storageRoot, err := paths.Resolve(cfg.StorageRoot, configDir)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, skill := range cfg.Skills {
		sourcePath := paths.NormalizeLexical(filepath.Join(storageRoot, skill.ID, skill.Source.Subpath))

		for _, target := range skill.Targets {
			targetRoot, err := config.ResolveTargetPath(target, configDir)
			if err != nil {
				return nil, err
			}
			targetPath := paths.NormalizeLexical(filepath.Join(targetRoot, skill.ID))

			action, reasons := determineAction(skill.Install.Mode, targetPath, sourcePath)
			items = append(items, Item{
				SkillID:     skill.ID,
				SourcePath:  sourcePath,
				TargetPath:  targetPath,
				InstallMode: string(skill.Install.Mode),
				Agent:       string(target.Agent),
				Action:      action,
				Reasons:     reasons,
			})
		}
	}

	if priorLock != nil {
		for _, orphan := range lock.Orphans(priorLock, cfg) {
			for _, target := range orphan.Targets {
				items = append(items, Item{
					SkillID:     orphan.ID,
					SourcePath:  "",
					TargetPath:  paths.NormalizeLexical(target.Path),
					InstallMode: orphan.InstallMode,
					Agent:       target.Agent,
					Action:      ActionRemove,
					Reasons:     []string{"skill removed from config; lock entry is now an orphan"},
				})
			}
		}
	}

	return items, nil
}

func determineAction(mode config.InstallMode, targetPath, sourcePath string) (Action, []string) {
	info, err := os.Lstat(targetPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ActionCreate, []string{"target path does not exist"}
		}
		return ActionConflict, []string{"stat failed: " + err.Error()}
	}

	if mode == config.InstallCopy {
		return determineCopyAction(targetPath, sourcePath, info)
	}
	return determineSymlinkAction(targetPath, sourcePath, info)
}

func determineSymlinkAction(targetPath, sourcePath string, info os.FileInfo) (Action, []string) {
	if info.Mode()&os.ModeSymlink == 0 {
		return ActionConflict, []string{"target exists but is not a symlink"}
	}

	resolved, err := readSymlinkTarget(targetPath)
	if err != nil {
		return ActionConflict, []string{"failed to read symlink: " + err.Error()}
	}

	normalizedSource := paths.NormalizeLexical(sourcePath)
	if resolved == normalizedSource {
		return ActionNoop, []string{"target already points to source"}
	}

	// Secondary equality test: resolve both real paths to tolerate
	// aliasing directories on the source side.
	if realTarget, err := filepath.EvalSymlinks(targetPath); err == nil {
		if realSource, err := filepath.EvalSymlinks(sourcePath); err == nil && realTarget == realSource {
			return ActionNoop, []string{"target resolves to source via an aliased path"}
		}
	}

	return ActionUpdate, []string{"symlink points to a different source"}
}

func readSymlinkTarget(targetPath string) (string, error) {
	raw, err := os.Readlink(targetPath)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(raw) {
		return paths.NormalizeLexical(raw), nil
	}
	parent := filepath.Dir(targetPath)
	return paths.NormalizeLexical(filepath.Join(parent, raw)), nil
}

func determineCopyAction(targetPath, sourcePath string, info os.FileInfo) (Action, []string) {
	if info.Mode()&os.ModeSymlink != 0 {
		return ActionConflict, []string{"target is a symlink but install mode is copy"}
	}

	if !info.IsDir() {
		equal, err := filesEqual(sourcePath, targetPath)
		if err != nil {
			return ActionConflict, []string{"copy comparison failed: " + err.Error()}
		}
		if equal {
			return ActionNoop, []string{"target file is byte-identical to source"}
		}
		return ActionUpdate, []string{"target file differs from source"}
	}

	equal, reason, err := treesEqual(sourcePath, targetPath)
	if err != nil {
		return ActionConflict, []string{"copy comparison failed: " + err.Error()}
	}
	if reason != "" {
		return ActionConflict, []string{reason}
	}
	if equal {
		return ActionNoop, []string{"target tree is byte-identical to source"}
	}
	return ActionUpdate, []string{"target tree differs from source"}
}

// treesEqual walks source and target in lockstep, failing fast on any
// symlink encountered in either tree, a structural mismatch, a size
// mismatch, or differing bytes. A non-empty reason indicates a conflict (a
// symlink found in either tree); an entry missing on one side, a
// file/directory mismatch, or differing content all return equal=false
// with an empty reason.
func treesEqual(sourceDir, targetDir string) (equal bool, reason string, err error) {
	sourceEntries, err := os.ReadDir(sourceDir)
	if err != nil {
		return false, "", err
	}
	targetEntries, err := os.ReadDir(targetDir)
	if err != nil {
		return false, "", err
	}

	targetByName := make(map[string]os.DirEntry, len(targetEntries))
	for _, entry := range targetEntries {
		targetByName[entry.Name()] = entry
	}

	for _, sourceEntry := range sourceEntries {
		sourceChild := filepath.Join(sourceDir, sourceEntry.Name())
		if sourceEntry.Type()&os.ModeSymlink != 0 {
			return false, "symlink in tree", nil
		}

		targetEntry, ok := targetByName[sourceEntry.Name()]
		if !ok {
			return false, "", nil
		}
		delete(targetByName, sourceEntry.Name())

		targetChild := filepath.Join(targetDir, sourceEntry.Name())
		if targetEntry.Type()&os.ModeSymlink != 0 {
			return false, "symlink in tree", nil
		}

		if sourceEntry.IsDir() != targetEntry.IsDir() {
			return false, "", nil
		}

		if sourceEntry.IsDir() {
			childEqual, childReason, err := treesEqual(sourceChild, targetChild)
			if err != nil {
				return false, "", err
			}
			if childReason != "" {
				return false, childReason, nil
			}
			if !childEqual {
				return false, "", nil
			}
			continue
		}

		childEqual, err := filesEqual(sourceChild, targetChild)
		if err != nil {
			return false, "", err
		}
		if !childEqual {
			return false, "", nil
		}
	}

	if len(targetByName) > 0 {
		return false, "", nil
	}
	return true, "", nil
}

func filesEqual(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fileA, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fileA.Close()
	fileB, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fileB.Close()

	const chunkSize = 64 * 1024
	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)
	for {
		nA, errA := io.ReadFull(fileA, bufA)
		nB, errB := io.ReadFull(fileB, bufB)
		if nA != nB {
			return false, nil
		}
		if !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
		if errA == io.EOF && errB == io.EOF {
			return true, nil
		}
		if errA != nil && errA != io.ErrUnexpectedEOF && errA != io.EOF {
			return false, errA
		}
		if errB != nil && errB != io.ErrUnexpectedEOF && errB != io.EOF {
			return false, errB
		}
		if (errA == io.EOF || errA == io.ErrUnexpectedEOF) != (errB == io.EOF || errB == io.ErrUnexpectedEOF) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return true, nil
		}
	}
}
