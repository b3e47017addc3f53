package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hopic-ci/hopic/pkg/config"
)

func TestShouldRunAlways(t *testing.T) {
	run, brk := shouldRun(config.RunOnChangeAlways, ChangeContext{})
	assert.True(t, run)
	assert.False(t, brk)
}

func TestShouldRunNeverBreaksOnChange(t *testing.T) {
	run, brk := shouldRun(config.RunOnChangeNever, ChangeContext{HasChange: true})
	assert.False(t, run)
	assert.True(t, brk)
}

func TestShouldRunNeverContinuesWithoutChange(t *testing.T) {
	run, brk := shouldRun(config.RunOnChangeNever, ChangeContext{HasChange: false})
	assert.True(t, run)
	assert.False(t, brk)
}

func TestShouldRunOnlyRequiresChangeAndPublish(t *testing.T) {
	run, brk := shouldRun(config.RunOnChangeOnly, ChangeContext{HasChange: true, PublishAllowed: true})
	assert.True(t, run)
	assert.False(t, brk)

	run, brk = shouldRun(config.RunOnChangeOnly, ChangeContext{HasChange: true, PublishAllowed: false})
	assert.False(t, run)
	assert.True(t, brk)
}

func TestShouldRunNewVersionOnlyRequiresBump(t *testing.T) {
	ch := ChangeContext{HasChange: true, PublishAllowed: true, VersionBumped: false}
	run, brk := shouldRun(config.RunOnChangeNewVersionOnly, ch)
	assert.False(t, run)
	assert.True(t, brk)

	ch.VersionBumped = true
	run, brk = shouldRun(config.RunOnChangeNewVersionOnly, ch)
	assert.True(t, run)
	assert.False(t, brk)
}
