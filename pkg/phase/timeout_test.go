package phase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutBudgetNoDeadlineUsesStepOwn(t *testing.T) {
	b := newTimeoutBudget(0, false)
	d, ok := b.effective(5, true)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
}

func TestTimeoutBudgetNoDeadlineNoStepTimeout(t *testing.T) {
	b := newTimeoutBudget(0, false)
	d, ok := b.effective(0, false)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)
}

func TestTimeoutBudgetCapsToRemaining(t *testing.T) {
	b := newTimeoutBudget(1, true)
	d, ok := b.effective(100, true)
	assert.True(t, ok)
	assert.LessOrEqual(t, d, 1*time.Second)
}

func TestTimeoutBudgetExpiredFailsBeforeDispatch(t *testing.T) {
	b := &timeoutBudget{deadline: time.Now().Add(-time.Second), hasDeadline: true}
	_, ok := b.effective(5, true)
	assert.False(t, ok)
}

func TestTimeoutBudgetOwnTimeoutSmallerWins(t *testing.T) {
	b := newTimeoutBudget(100, true)
	d, ok := b.effective(3, true)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
}
