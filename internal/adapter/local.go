package adapter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/edenpkg/edenpkg/internal/config"
	"github.com/edenpkg/edenpkg/internal/ekind"
)

// LocalAdapter installs targets directly onto the host filesystem:
// symlink into the content store, or a recursive byte-for-byte copy. The
// install sequence is always "compute destination -> remove conflicting
// owned entry -> create fresh", never an in-place mutation, so an
// interrupted apply leaves either the old state or a fully complete new
// state at that path.
type LocalAdapter struct{}

// NewLocalAdapter constructs a LocalAdapter. It has no state of its own.
func NewLocalAdapter() *LocalAdapter {
	return &LocalAdapter{}
}

func (a *LocalAdapter) Type() string { return string(KindLocal) }

func (a *LocalAdapter) HealthCheck(ctx context.Context) error { return nil }

func (a *LocalAdapter) PathExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, ekind.Wrap(ekind.Io, err)
}

func (a *LocalAdapter) Install(ctx context.Context, source, target string, mode config.InstallMode) error {
	sourceInfo, err := os.Lstat(source)
	if err != nil {
		return ekind.Wrap(ekind.Io, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	if err := removeExisting(target); err != nil {
		return err
	}

	switch mode {
	case config.InstallCopy:
		return copyRecursively(source, target)
	default:
		return createSymlink(source, target, sourceInfo.IsDir())
	}
}

func (a *LocalAdapter) Exec(ctx context.Context, cmd string) (string, error) {
	var command *exec.Cmd
	if runtime.GOOS == "windows" {
		command = exec.CommandContext(ctx, "cmd", "/C", cmd)
	} else {
		command = exec.CommandContext(ctx, "sh", "-c", cmd)
	}

	output, err := command.Output()
	if err != nil {
		return "", ekind.Newf(ekind.Runtime, "local command failed: %v", err)
	}
	return string(output), nil
}

func removeExisting(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return ekind.Wrap(ekind.Io, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(path); err != nil {
			return ekind.Wrap(ekind.Io, err)
		}
		return nil
	}
	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return ekind.Wrap(ekind.Io, err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	return nil
}

func createSymlink(source, target string, sourceIsDir bool) error {
	_ = sourceIsDir // symlink creation is platform-uniform on POSIX; kept for parity with the Windows symlink_dir/symlink_file split
	if err := os.Symlink(source, target); err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	return nil
}

func copyRecursively(source, target string) error {
	sourceInfo, err := os.Lstat(source)
	if err != nil {
		return ekind.Wrap(ekind.Io, err)
	}

	if !sourceInfo.IsDir() {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return ekind.Wrap(ekind.Io, err)
		}
		return copyFile(source, target)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return ekind.Wrap(ekind.Io, err)
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	for _, entry := range entries {
		sourceChild := filepath.Join(source, entry.Name())
		targetChild := filepath.Join(target, entry.Name())
		if entry.IsDir() {
			if err := copyRecursively(sourceChild, targetChild); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(sourceChild, targetChild); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return ekind.Wrap(ekind.Io, err)
	}
	return nil
}
