package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/classifier"
)

func TestParseCommitLogRecords(t *testing.T) {
	out := "deadbeef\x00feat: add thing\n\nBody line\n" + commitRecordSep +
		"\nc0ffee\x00fix: broken thing\n" + commitRecordSep
	records := parseCommitLogRecords(out)
	require.Len(t, records, 2)
	assert.Equal(t, "deadbeef", records[0].hexsha)
	assert.Contains(t, records[0].body, "feat: add thing")
	assert.Equal(t, "c0ffee", records[1].hexsha)
	assert.Contains(t, records[1].body, "fix: broken thing")
}

func TestParseCommitLogRecordsSkipsBlankRecords(t *testing.T) {
	out := commitRecordSep + "\n" + commitRecordSep
	assert.Empty(t, parseCommitLogRecords(out))
}

func TestParseCommitLogRecordsSkipsMalformed(t *testing.T) {
	out := "no-nul-separator-here" + commitRecordSep
	assert.Empty(t, parseCommitLogRecords(out))
}

func TestParseCommitLogRecordsClassify(t *testing.T) {
	out := "deadbeef\x00feat!: breaking change\n" + commitRecordSep
	records := parseCommitLogRecords(out)
	require.Len(t, records, 1)

	c := classifier.ConventionalCommits{}
	classified, err := c.Classify(records[0].hexsha, records[0].body, false)
	require.NoError(t, err)
	assert.True(t, classified.HasBreakingChange())
	assert.Equal(t, "deadbeef", classified.Hexsha())
}
