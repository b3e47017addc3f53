package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, subject string, strict bool) Classified {
	t.Helper()
	c, err := (ConventionalCommits{}).Classify("abc123", subject, strict)
	require.NoError(t, err)
	return c
}

func TestClassifyFeature(t *testing.T) {
	c := classify(t, "feat: add widget\n", false)
	assert.True(t, c.HasNewFeature())
	assert.False(t, c.HasFix())
	assert.False(t, c.HasBreakingChange())
	assert.Equal(t, "feat: add widget", c.Subject())
}

func TestClassifyFix(t *testing.T) {
	c := classify(t, "fix(parser): handle empty input\n", false)
	assert.True(t, c.HasFix())
	assert.False(t, c.HasNewFeature())
}

func TestClassifyBreakingMarker(t *testing.T) {
	c := classify(t, "feat!: drop legacy flag\n", false)
	assert.True(t, c.HasBreakingChange())
	assert.True(t, c.HasNewFeature())
}

func TestClassifyBreakingFooter(t *testing.T) {
	c := classify(t, "fix: patch\n\nBREAKING CHANGE: removes the old config key\n", false)
	assert.True(t, c.HasBreakingChange())
	assert.True(t, c.HasFix())
}

func TestClassifyAutosquash(t *testing.T) {
	c := classify(t, "fixup! feat: add widget\n", false)
	assert.True(t, c.NeedsAutosquash())
	assert.Equal(t, "feat: add widget", c.Subject())
	assert.Equal(t, "fixup! feat: add widget", c.FullSubject())
	assert.True(t, c.HasNewFeature())
}

func TestClassifyNonConventionalLenient(t *testing.T) {
	c := classify(t, "wip\n", false)
	assert.False(t, c.HasNewFeature())
	assert.False(t, c.HasFix())
	assert.False(t, c.HasBreakingChange())
}

func TestClassifyNonConventionalStrictFails(t *testing.T) {
	_, err := (ConventionalCommits{}).Classify("abc123", "wip\n", true)
	assert.Error(t, err)
}

func TestClassifyFootersAndHexsha(t *testing.T) {
	c := classify(t, "fix: patch\n\nFixes: JIRA-123\nReviewed-by: someone\n", false)
	assert.Equal(t, "abc123", c.Hexsha())
	assert.ElementsMatch(t, []string{"Fixes: JIRA-123", "Reviewed-by: someone"}, c.Footers())
}

func TestClassifyMergeCommitSubject(t *testing.T) {
	c := classify(t, "Merge pull request #1: feat: add widget\n", false)
	assert.Equal(t, "feat: add widget", c.Subject())
	assert.True(t, c.HasNewFeature())
}
