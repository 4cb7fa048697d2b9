package safety

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopScanner_Analyze(t *testing.T) {
	report, err := NoopScanner{}.Analyze(context.Background(), "formatter", "/store/formatter")
	require.NoError(t, err)
	assert.Equal(t, "formatter", report.SkillID)
	assert.True(t, report.LicenseKnown)
	assert.False(t, report.RiskReviewNeed)
}

func TestMatchesAnyGlob(t *testing.T) {
	matched, err := MatchesAnyGlob([]string{"**/*.go"}, "internal/safety/safety.go")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = MatchesAnyGlob([]string{"**/*.rs"}, "internal/safety/safety.go")
	require.NoError(t, err)
	assert.False(t, matched)

	matched, err = MatchesAnyGlob(nil, "anything")
	require.NoError(t, err)
	assert.False(t, matched)

	_, err = MatchesAnyGlob([]string{"["}, "anything")
	require.Error(t, err)
}
