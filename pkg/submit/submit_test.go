package submit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
)

func TestResolveRefspecsPrefersPersistedList(t *testing.T) {
	meta := gitrepo.PerCommitMeta{
		Refspecs: []string{"abc:refs/heads/main", "def:refs/worktrees/vendor"},
		Ref:      "refs/heads/main",
	}
	got := resolveRefspecs(meta, "abc")
	assert.Equal(t, meta.Refspecs, got)
}

func TestResolveRefspecsFallsBackToHeadAndRef(t *testing.T) {
	meta := gitrepo.PerCommitMeta{Ref: "refs/heads/main"}
	got := resolveRefspecs(meta, "deadbeef")
	assert.Equal(t, []string{"deadbeef:refs/heads/main"}, got)
}

func TestResolveRefspecsEmptyWhenNothingPersisted(t *testing.T) {
	assert.Nil(t, resolveRefspecs(gitrepo.PerCommitMeta{}, "deadbeef"))
}

func TestPostSubmitVariantFlattensPhasesInOrder(t *testing.T) {
	phases := []config.PostSubmitPhase{
		{Name: "publish", Steps: []config.Step{{Description: "upload"}}},
		{Name: "notify", Steps: []config.Step{{Description: "slack"}, {Description: "email"}}},
	}
	v := postSubmitVariant(phases)
	assert.Equal(t, postSubmitVariantName, v.Name)
	assert.Len(t, v.Steps, 3)
	assert.Equal(t, "upload", v.Steps[0].Description)
	assert.Equal(t, "slack", v.Steps[1].Description)
	assert.Equal(t, "email", v.Steps[2].Description)
}

func TestPostSubmitVariantEmptyWhenNoPhases(t *testing.T) {
	v := postSubmitVariant(nil)
	assert.Empty(t, v.Steps)
}
