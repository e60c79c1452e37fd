package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/EffortlessMetrics/runbookd/internal/core"
)

func TestEditorCommandPayload_SendKeyIncludesKeyName(t *testing.T) {
	cmd := core.SendKeyCommand(core.KeyCtrlC)
	p := editorCommandPayload(cmd)

	assert.Equal(t, "send_key", p.Kind)
	assert.Equal(t, "ctrl_c", p.Key)
}

func TestEditorCommandPayload_SendTextCarriesNewlineAndText(t *testing.T) {
	cmd := core.SendTextCommand("continue", true)
	p := editorCommandPayload(cmd)

	assert.Equal(t, "send_text", p.Kind)
	assert.True(t, p.Newline)
	assert.Equal(t, "continue", p.Text)
}

func TestEditorCommandPayload_ScrollTerminalCarriesDelta(t *testing.T) {
	cmd := core.ScrollTerminalCommand(-4)
	p := editorCommandPayload(cmd)

	assert.Equal(t, "scroll_terminal", p.Kind)
	assert.Equal(t, int32(-4), p.Delta)
}

func TestEditorCommandPayload_OpenURICarriesURI(t *testing.T) {
	cmd := core.OpenURICommand("https://example.com/pr")
	p := editorCommandPayload(cmd)

	assert.Equal(t, "open_uri", p.Kind)
	assert.Equal(t, "https://example.com/pr", p.URI)
}

func TestServer_StepWithNoClientsDoesNotPanic(t *testing.T) {
	s := testServer(t)
	assert.NotPanics(t, func() {
		s.Step(core.HookEvent(time.Now(), core.HookSessionStart, "", "sess-1", "", nil))
	})
}
