// Package safety is an interface-only seam for skill safety-metadata
// scanning (license detection, risk-label heuristics). internal/verify
// calls through Scanner so the doctor's LICENSE_UNKNOWN/
// RISK_REVIEW_REQUIRED/NO_EXEC_METADATA_ONLY codes have a wiring point
// without this package implementing the heuristics themselves.
package safety

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Report is the outcome of scanning one skill's synced repository.
type Report struct {
	SkillID        string
	LicenseKnown   bool
	RiskReviewNeed bool
}

// Scanner analyzes a synced skill repository for safety metadata. The
// only implementation carried here is NoopScanner; a real license/risk
// detector plugs in from outside.
type Scanner interface {
	Analyze(ctx context.Context, skillID, repoPath string) (Report, error)
}

// NoopScanner reports every skill as fully known and low-risk. It is the
// default Scanner until a real implementation is plugged in.
type NoopScanner struct{}

func (NoopScanner) Analyze(ctx context.Context, skillID, repoPath string) (Report, error) {
	return Report{SkillID: skillID, LicenseKnown: true, RiskReviewNeed: false}, nil
}

// MatchesAnyGlob reports whether candidate matches any of patterns, using
// doublestar glob syntax (`**/*.go`, `src/**`). Used by the doctor's
// finding ignore-pattern filter.
func MatchesAnyGlob(patterns []string, candidate string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, candidate)
		if err != nil {
			return false, ekind.Newf(ekind.Validation, "invalid glob pattern `%s`: %v", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
