package cli

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/console"
)

func newTestRootWithGlobals() *cobra.Command {
	cmd := &cobra.Command{Use: "test-root"}
	addGlobalFlags(cmd)
	return cmd
}

func TestReadGlobalsDefaults(t *testing.T) {
	cmd := newTestRootWithGlobals()
	g, err := readGlobals(cmd)
	require.NoError(t, err)
	assert.Equal(t, console.ColorAuto, g.Color)
	assert.Equal(t, ".", g.Workspace)
	assert.False(t, g.PublishableVersion)
	assert.Empty(t, g.WhitelistedVars)
}

func TestReadGlobalsHonorsFlags(t *testing.T) {
	cmd := newTestRootWithGlobals()
	require.NoError(t, cmd.Flags().Set("color", "never"))
	require.NoError(t, cmd.Flags().Set("workspace", "/tmp/work"))
	require.NoError(t, cmd.Flags().Set("publishable-version", "true"))
	require.NoError(t, cmd.Flags().Set("whitelisted-var", "HOME"))
	require.NoError(t, cmd.Flags().Set("whitelisted-var", "PATH"))

	g, err := readGlobals(cmd)
	require.NoError(t, err)
	assert.Equal(t, console.ColorNever, g.Color)
	assert.Equal(t, "/tmp/work", g.Workspace)
	assert.True(t, g.PublishableVersion)
	assert.Equal(t, []string{"HOME", "PATH"}, g.WhitelistedVars)
}

func TestReadGlobalsVerboseSetsDebugEnv(t *testing.T) {
	os.Unsetenv("DEBUG")
	defer os.Unsetenv("DEBUG")

	cmd := newTestRootWithGlobals()
	require.NoError(t, cmd.Flags().Set("verbose", "1"))

	_, err := readGlobals(cmd)
	require.NoError(t, err)
	assert.Equal(t, "*", os.Getenv("DEBUG"))
}

func TestReadGlobalsGitVerboseSetsGitTraceEnv(t *testing.T) {
	os.Unsetenv("GIT_TRACE")
	defer os.Unsetenv("GIT_TRACE")

	cmd := newTestRootWithGlobals()
	require.NoError(t, cmd.Flags().Set("git-verbose", "true"))

	_, err := readGlobals(cmd)
	require.NoError(t, err)
	assert.Equal(t, "1", os.Getenv("GIT_TRACE"))
}

func TestGlobalOptionsRepoUsesWorkspace(t *testing.T) {
	g := globalOptions{Workspace: "/some/path"}
	repo := g.repo()
	require.NotNil(t, repo)
	assert.Equal(t, "/some/path", repo.Dir)
}
