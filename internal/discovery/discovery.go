// Package discovery provides the gitignore-backed ignore matching the
// doctor uses to suppress findings listed in a config's .edenignore
// file. Skill-discovery heuristics (walking a repo for SKILL.md
// manifests) live outside the reconciliation engine; only the matcher
// seam is implemented here.
package discovery

import (
	"os"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-config ignore file the doctor consults,
// resolved relative to the config file's directory.
const IgnoreFileName = ".edenignore"

// Ignorer reports whether a single path, relative to some root, should be
// treated as ignored. This is a flat single-pattern-list matcher: the
// engine has no directory tree to walk, only a flat list of glob-style
// ignore patterns.
type Ignorer interface {
	Match(path string) bool
}

// gitignoreMatcher adapts a compiled pattern list to Ignorer.
type gitignoreMatcher struct {
	compiled *gitignore.GitIgnore
}

// NewGitignoreMatcher compiles patterns (gitignore syntax) into an Ignorer.
// An empty pattern list yields a matcher that never ignores anything.
func NewGitignoreMatcher(patterns []string) (Ignorer, error) {
	compiled := gitignore.CompileIgnoreLines(patterns...)
	return &gitignoreMatcher{compiled: compiled}, nil
}

// LoadIgnoreFile compiles the gitignore-syntax patterns in the file at
// path. A missing file is not an error; ok reports whether one was found.
func LoadIgnoreFile(path string) (ignorer Ignorer, ok bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, false, nil
		}
		return nil, false, statErr
	}

	compiled, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, false, err
	}
	return &gitignoreMatcher{compiled: compiled}, true, nil
}

func (m *gitignoreMatcher) Match(path string) bool {
	return m.compiled.MatchesPath(path)
}
