package phase

import (
	"time"

	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// timeoutBudget tracks the per-variant global_timeout_expire_time of
// spec §4.6: a monotonic deadline debited by however long each sh step
// actually took, independent of wall-clock adjustments.
type timeoutBudget struct {
	deadline    time.Time
	hasDeadline bool
}

func newTimeoutBudget(globalTimeout float64, hasGlobalTimeout bool) *timeoutBudget {
	b := &timeoutBudget{}
	if hasGlobalTimeout {
		b.deadline = time.Now().Add(time.Duration(globalTimeout * float64(time.Second)))
		b.hasDeadline = true
	}
	return b
}

// effective computes the timeout to pass to the next step: the
// smaller of the step's own timeout and whatever remains of the
// variant's global budget. ok is false when the global budget has
// already expired before the step could even start.
func (b *timeoutBudget) effective(stepTimeout float64, hasStepTimeout bool) (timeout time.Duration, ok bool) {
	if !b.hasDeadline {
		if !hasStepTimeout {
			return 0, true
		}
		return time.Duration(stepTimeout * float64(time.Second)), true
	}

	remaining := time.Until(b.deadline)
	if remaining <= 0 {
		return 0, false
	}
	if !hasStepTimeout {
		return remaining, true
	}
	own := time.Duration(stepTimeout * float64(time.Second))
	if own < remaining {
		return own, true
	}
	return remaining, true
}

// stepTimeoutErr builds the StepTimeoutExpired "before" variant: the
// global budget was already exhausted, so the subprocess never runs.
func stepTimeoutErr(phase, variant, step string) error {
	return hopicerr.NewStepTimeoutError("global timeout already expired before step %q of variant %q (phase %q) could start", step, variant, phase)
}
