// Package paths implements tilde expansion and lexical path normalization
// shared by every later reconciliation-engine layer. Normalization never
// touches the filesystem, so callers can assert deterministic equality in
// tests without real directories.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Resolve expands `~`, joins relative input against configDir, and
// lexically normalizes the result into an absolute path.
func Resolve(input, configDir string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ekind.New(ekind.Validation, "path must not be empty")
	}

	expanded, err := ExpandHome(input)
	if err != nil {
		return "", err
	}

	resolved := expanded
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(configDir, resolved)
	}
	return NormalizeLexical(resolved), nil
}

// ExpandHome expands a leading `~` or `~/...` using HOME/USERPROFILE.
// Any other use of `~` (e.g. `~otheruser`) is rejected as unsupported.
func ExpandHome(input string) (string, error) {
	if input == "~" {
		return userHomeDir()
	}
	if rest, ok := strings.CutPrefix(input, "~/"); ok {
		home, err := userHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, rest), nil
	}
	if strings.HasPrefix(input, "~") {
		return "", ekind.Newf(ekind.Validation, "unsupported home expansion in path `%s`", input)
	}
	return input, nil
}

func userHomeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	if profile := os.Getenv("USERPROFILE"); profile != "" {
		return profile, nil
	}
	return "", ekind.New(ekind.Validation, "HOME or USERPROFILE is not set for path expansion")
}

// NormalizeLexical collapses `.` and `..` components without touching the
// filesystem, so aliasing/symlinked directories are not resolved here.
func NormalizeLexical(path string) string {
	if path == "" {
		return "."
	}

	isAbs := filepath.IsAbs(path)
	sep := string(filepath.Separator)
	parts := strings.Split(filepath.ToSlash(path), "/")

	var stack []string
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 && stack[len(stack)-1] != ".." {
				stack = stack[:len(stack)-1]
			} else if !isAbs {
				stack = append(stack, "..")
			}
		default:
			stack = append(stack, part)
		}
	}

	joined := strings.Join(stack, sep)
	if isAbs {
		return sep + joined
	}
	if joined == "" {
		return "."
	}
	return joined
}
