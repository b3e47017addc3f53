package phase

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

func TestResolveStepOutcomeCaughtSignalWinsOverDoneErr(t *testing.T) {
	// A containerized step's teardown (`docker stop`) makes the
	// subprocess exit with its own status (137) once the signal
	// already arrived; that must not override the 128+signum report.
	containerExit := &exec.ExitError{}
	err := resolveStepOutcome(true, 15, false, config.Step{}, "linux", containerExit)

	var sigErr *hopicerr.SignalExit
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, 15, sigErr.Signum)
	assert.Equal(t, 143, sigErr.ExitCode())
}

func TestResolveStepOutcomeSigintReportsCorrectExitCode(t *testing.T) {
	err := resolveStepOutcome(true, 2, false, config.Step{}, "linux", nil)
	var sigErr *hopicerr.SignalExit
	require.ErrorAs(t, err, &sigErr)
	assert.Equal(t, 130, sigErr.ExitCode())
}

func TestResolveStepOutcomeTimeoutTakesPriorityEvenIfSignalSeen(t *testing.T) {
	step := config.Step{Description: "long step"}
	err := resolveStepOutcome(true, 15, true, step, "windows", nil)

	var timeoutErr *hopicerr.StepTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestResolveStepOutcomeNoSignalNoTimeoutClassifiesExit(t *testing.T) {
	err := resolveStepOutcome(false, 0, false, config.Step{}, "linux", nil)
	assert.NoError(t, err)
}

func TestClassifyExitWrapsExitError(t *testing.T) {
	_, err := exec.Command("false").Output()
	require.Error(t, err)

	wrapped := classifyExit(err)
	var exitCoded *exitCodeError
	require.ErrorAs(t, wrapped, &exitCoded)
	assert.Equal(t, 1, exitCoded.ExitCode())
}

func TestClassifyExitNilIsNil(t *testing.T) {
	assert.NoError(t, classifyExit(nil))
}
