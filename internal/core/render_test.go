package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRender_KeypadReflectsOnlyConfiguredSlots(t *testing.T) {
	s := NewDaemonState()
	cfg := testConfig(t)

	render := ProjectRender(s, cfg, time.Now())

	require.Equal(t, 9, len(render.Keypad))
	assert.True(t, render.Keypad[0].Present)
	assert.Equal(t, "continue", render.Keypad[0].PromptID)
	assert.Equal(t, "Continue", render.Keypad[0].Label)
	assert.False(t, render.Keypad[0].Gate)
	for i := 1; i < 8; i++ {
		assert.False(t, render.Keypad[i].Present)
	}
	assert.True(t, render.Keypad[8].Present, "slot 8 holds the open_pr gate")
	assert.True(t, render.Keypad[8].Gate)
	assert.Equal(t, "PR", render.Keypad[8].Label)
	assert.Equal(t, 2, render.PageCount)
}

func TestProjectRender_GatePressCannotShowAsArmed(t *testing.T) {
	s := NewDaemonState()
	cfg := testConfig(t)
	s.applyKeypadPress(cfg, "open_pr")

	render := ProjectRender(s, cfg, time.Now())

	assert.Nil(t, render.Armed)
	assert.True(t, render.Keypad[8].Gate)
}

func TestProjectRender_OutOfRangePageIndexFallsBackToFirstPage(t *testing.T) {
	s := NewDaemonState()
	cfg := testConfig(t)
	s.PageIndex = 99

	render := ProjectRender(s, cfg, time.Now())

	assert.True(t, render.Keypad[0].Present)
}

func TestRenderModel_EqualIsStructural(t *testing.T) {
	s := NewDaemonState()
	cfg := testConfig(t)
	now := time.Now()

	a := ProjectRender(s, cfg, now)
	b := ProjectRender(s, cfg, now)
	assert.True(t, a.Equal(b))

	s.PageIndex = 1
	c := ProjectRender(s, cfg, now)
	assert.False(t, a.Equal(c))
}
