package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVolumesInsertsDefaults(t *testing.T) {
	vars := map[string]any{"WORKSPACE": "/home/ci/workspace"}
	volumes, err := resolveVolumes("/cfg", vars, nil)
	require.NoError(t, err)

	targets := map[string]bool{}
	for _, v := range volumes {
		targets[v.Target] = true
	}
	assert.True(t, targets["/code"])
	assert.True(t, targets["/etc/passwd"])
	assert.True(t, targets["/etc/group"])
}

func TestResolveVolumesSkipsSuppressedDefault(t *testing.T) {
	vars := map[string]any{"WORKSPACE": "/home/ci/workspace"}
	volumes, err := resolveVolumes("/cfg", vars, []Volume{
		{Target: "/code", Suppressed: true},
	})
	require.NoError(t, err)

	for _, v := range volumes {
		assert.NotEqual(t, "/code", v.Target)
	}
}

func TestResolveVolumeRewritesHomeTarget(t *testing.T) {
	v, err := resolveVolume("/cfg", map[string]any{}, Volume{Target: "~/data", Source: "/host/data"})
	require.NoError(t, err)
	assert.Equal(t, "/home/sandbox/data", v.Target)
}

func TestResolveVolumeJoinsRelativeSourceToConfigDir(t *testing.T) {
	v, err := resolveVolume("/cfg/dir", map[string]any{}, Volume{Target: "/x", Source: "sub/path"})
	require.NoError(t, err)
	assert.Equal(t, "/cfg/dir/sub/path", v.Source)
}

func TestParseVolumeStringWithMode(t *testing.T) {
	v, err := parseVolumeString("/host/path:/guest/path:ro")
	require.NoError(t, err)
	assert.Equal(t, "/host/path", v.Source)
	assert.Equal(t, "/guest/path", v.Target)
	assert.True(t, v.ReadOnly)
}

func TestNormalizeGlobShorthand(t *testing.T) {
	assert.Equal(t, "dist/*.whl", normalizeGlob("dist/(*).whl"))
	assert.Equal(t, "**/*.log", normalizeGlob("**/*.log"))
}
