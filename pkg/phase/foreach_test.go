package phase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/config"
)

type stubClassified struct{ sha string }

func (s stubClassified) HasBreakingChange() bool { return false }
func (s stubClassified) HasNewFeature() bool     { return false }
func (s stubClassified) HasFix() bool            { return false }
func (s stubClassified) NeedsAutosquash() bool   { return false }
func (s stubClassified) Subject() string         { return "" }
func (s stubClassified) FullSubject() string     { return "" }
func (s stubClassified) Footers() []string       { return nil }
func (s stubClassified) Hexsha() string          { return s.sha }

func TestIterationsForNoneIsSinglePass(t *testing.T) {
	iters := iterationsFor(config.ForeachNone, ChangeContext{})
	require.Len(t, iters, 1)
	assert.False(t, iters[0].hasItem)
}

func TestIterationsForSourceCommitWalksEachCommit(t *testing.T) {
	ch := ChangeContext{
		SourceCommits: []classifier.Classified{stubClassified{sha: "aaa"}, stubClassified{sha: "bbb"}},
	}
	iters := iterationsFor(config.ForeachSourceCommit, ch)
	require.Len(t, iters, 2)
	assert.Equal(t, "aaa", iters[0].item)
	assert.Equal(t, "bbb", iters[1].item)
}

func TestIterationsForSourceChangesetUsesAutosquashRange(t *testing.T) {
	ch := ChangeContext{
		AutosquashRange: []classifier.Classified{stubClassified{sha: "ccc"}},
	}
	iters := iterationsFor(config.ForeachSourceChangeset, ch)
	require.Len(t, iters, 1)
	assert.Equal(t, "ccc", iters[0].item)
}

func TestIterationsCarryGitCommitTime(t *testing.T) {
	ch := ChangeContext{
		SourceCommits: []classifier.Classified{stubClassified{sha: "aaa"}},
		GitCommitTimeFor: func(hexsha string) (time.Time, error) {
			return time.Unix(1000, 0), nil
		},
	}
	iters := iterationsFor(config.ForeachSourceCommit, ch)
	require.Len(t, iters, 1)
	assert.True(t, iters[0].hasGitCommitTime)
}
