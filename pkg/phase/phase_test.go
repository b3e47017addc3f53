package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/config"
)

func sampleConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		Phases: []config.Phase{
			{Name: "build", Variants: []config.Variant{{Name: "linux"}, {Name: "windows"}}},
			{Name: "test", Variants: []config.Variant{{Name: "linux"}}},
		},
	}
}

func TestSelectionIncludesEverythingWhenEmpty(t *testing.T) {
	var s Selection
	assert.True(t, s.includesPhase("build"))
	assert.True(t, s.includesVariant("linux"))
}

func TestSelectionFiltersByName(t *testing.T) {
	s := Selection{Phases: []string{"build"}, Variants: []string{"linux"}}
	assert.True(t, s.includesPhase("build"))
	assert.False(t, s.includesPhase("test"))
	assert.True(t, s.includesVariant("linux"))
	assert.False(t, s.includesVariant("windows"))
}

func TestValidateSelectionAcceptsKnownPhase(t *testing.T) {
	opts := RunOptions{Config: sampleConfig(), Selection: Selection{Phases: []string{"build"}}}
	require.NoError(t, validateSelection(opts))
}

func TestValidateSelectionRejectsUnknownPhase(t *testing.T) {
	opts := RunOptions{Config: sampleConfig(), Selection: Selection{Phases: []string{"package"}}}
	err := validateSelection(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package")
}

func TestValidateSelectionRejectsUnknownVariant(t *testing.T) {
	opts := RunOptions{Config: sampleConfig(), Selection: Selection{Variants: []string{"macos"}}}
	err := validateSelection(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macos")
}

func TestRefForWorktree(t *testing.T) {
	assert.Equal(t, "refs/worktrees/vendor", refForWorktree("vendor"))
}
