package core

import (
	"reflect"
	"time"

	"github.com/EffortlessMetrics/runbookd/internal/config"
)

// HooksConnectedWindow is the sliding-window duration within which a hook
// must have been observed for hooks_connected to read true, on top of
// HooksMode being Active. 15s is comfortably longer than the 1s Tick
// cadence, so a single missed tick cannot flap the indicator.
const HooksConnectedWindow = 15 * time.Second

// EndedLatchTTL bounds how long last_ended_state survives after the last
// session ended, expired only by an explicit Tick event so the clock never
// enters the core any other way.
const EndedLatchTTL = 30 * time.Second

// KeypadSlot is one of the nine rendered slots on the current page.
type KeypadSlot struct {
	PromptID string `json:"prompt_id,omitempty"`
	Label    string `json:"label,omitempty"`
	Present  bool   `json:"present"`

	// Gate marks a slot that bypasses the arm/dispatch cycle entirely:
	// pressing it opens a URI immediately rather than arming a prompt.
	Gate bool `json:"gate,omitempty"`
}

// TerminalView is the rendered form of one known terminal.
type TerminalView struct {
	Index      int    `json:"index"`
	SessionTag string `json:"session_tag,omitempty"`
}

// RenderModel is the pure projection of (DaemonState, RunbookConfig)
// broadcast to every connected client. It holds no hidden state — two
// RenderModels built from equal state+config are equal.
type RenderModel struct {
	AgentState string `json:"agent_state"`

	Armed *string `json:"armed,omitempty"`

	Keypad [config.SlotsPerPage]KeypadSlot `json:"keypad"`

	PageIndex int `json:"page_index"`
	PageCount int `json:"page_count"`

	HooksConnected bool `json:"hooks_connected"`

	Terminals           []TerminalView `json:"terminals"`
	ActiveTerminalIndex *int           `json:"active_terminal_index,omitempty"`
}

// Equal reports structural equality, used to suppress duplicate broadcasts.
func (r RenderModel) Equal(other RenderModel) bool {
	return reflect.DeepEqual(r, other)
}

// ProjectRender computes the render model for the current state and config.
// now is supplied by the caller (always an Event's At field in practice) so
// that the projection itself never touches the wall clock, keeping replay
// deterministic.
func ProjectRender(s *DaemonState, cfg *config.RunbookConfig, now time.Time) RenderModel {
	m := RenderModel{
		AgentState: s.resolveAgentState().String(),
		PageIndex:  s.PageIndex,
		PageCount:  cfg.PageCount(),
	}

	if s.Armed != nil {
		id := *s.Armed
		m.Armed = &id
	}

	if m.PageCount > 0 {
		pageIdx := s.PageIndex
		if pageIdx < 0 || pageIdx >= m.PageCount {
			pageIdx = 0
		}
		page := cfg.Pages[pageIdx]
		for i, slot := range page.Slots {
			if slot == "" {
				continue
			}
			if p, ok := cfg.Prompt(slot); ok {
				m.Keypad[i] = KeypadSlot{PromptID: p.ID, Label: p.Label, Present: true}
				continue
			}
			if g, ok := cfg.Gate(slot); ok {
				m.Keypad[i] = KeypadSlot{PromptID: g.ID, Label: g.Label, Present: true, Gate: true}
			}
		}
	}

	m.HooksConnected = s.HooksConnected(now)

	m.Terminals = make([]TerminalView, len(s.Terminals))
	for i, t := range s.Terminals {
		m.Terminals[i] = TerminalView{Index: t.Index, SessionTag: t.SessionTag}
	}
	if s.ActiveTerminalIndex != nil {
		idx := *s.ActiveTerminalIndex
		m.ActiveTerminalIndex = &idx
	}

	return m
}

// HooksConnected reports whether the render model should show the hardware
// as having live hook coverage: HooksMode must be Active and a hook must
// have arrived within the freshness window. The hook forwarder is a
// stateless HTTP POSTer with no socket of its own to watch, so freshness of
// the last hook is the only genuine liveness signal this architecture has;
// nothing about a WebSocket client's connection state (editor or otherwise)
// is allowed to stand in for it.
func (s *DaemonState) HooksConnected(now time.Time) bool {
	if s.HooksMode != HooksActive {
		return false
	}
	if s.LastHookAt.IsZero() {
		return false
	}
	return now.Sub(s.LastHookAt) <= HooksConnectedWindow
}
