package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/config"
)

func TestAuthorEnvOnlySetFlags(t *testing.T) {
	cmd := NewPrepareSourceTreeCommand()
	merge, _, err := cmd.Find([]string{"merge-change-request"})
	require.NoError(t, err)

	require.NoError(t, merge.ParseFlags([]string{"--author-name", "Jane Doe", "--author-email", "jane@example.com"}))

	env := authorEnv(merge)
	assert.Contains(t, env, "GIT_AUTHOR_NAME=Jane Doe")
	assert.Contains(t, env, "GIT_AUTHOR_EMAIL=jane@example.com")
	assert.NotContains(t, env, "GIT_AUTHOR_DATE=")
	assert.NotContains(t, env, "GIT_COMMITTER_DATE=")
}

func TestAuthorEnvEmptyWhenUnset(t *testing.T) {
	cmd := NewPrepareSourceTreeCommand()
	bump, _, err := cmd.Find([]string{"bump-version"})
	require.NoError(t, err)
	assert.Empty(t, authorEnv(bump))
}

func TestHotfixFromRefNoPatternConfigured(t *testing.T) {
	cfg := &config.PipelineConfig{}
	id, ok, err := hotfixFromRef(cfg, "refs/heads/hotfix/CVE-123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestHotfixFromRefMatches(t *testing.T) {
	cfg := &config.PipelineConfig{}
	cfg.Version.HotfixBranch = `^refs/heads/hotfix/(?P<id>.+)$`
	id, ok, err := hotfixFromRef(cfg, "refs/heads/hotfix/CVE-123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "CVE-123", id)
}

func TestHotfixFromRefNoMatch(t *testing.T) {
	cfg := &config.PipelineConfig{}
	cfg.Version.HotfixBranch = `^refs/heads/hotfix/(?P<id>.+)$`
	id, ok, err := hotfixFromRef(cfg, "refs/heads/main")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestHotfixFromRefInvalidPattern(t *testing.T) {
	cfg := &config.PipelineConfig{}
	cfg.Version.HotfixBranch = `(unterminated`
	_, _, err := hotfixFromRef(cfg, "refs/heads/main")
	assert.Error(t, err)
}

func TestPrepareSourceTreeSubcommandsRegistered(t *testing.T) {
	cmd := NewPrepareSourceTreeCommand()
	for _, name := range []string{"merge-change-request", "apply-modality-change", "bump-version"} {
		_, _, err := cmd.Find([]string{name})
		assert.NoErrorf(t, err, "expected subcommand %q to be registered", name)
	}
}
