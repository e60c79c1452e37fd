package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAgentState_ZeroSessionsFallsBackToLastEndedThenUnknown(t *testing.T) {
	s := NewDaemonState()
	assert.Equal(t, StateUnknown, s.resolveAgentState())

	ended := StateComplete
	s.LastEndedState = &ended
	assert.Equal(t, StateComplete, s.resolveAgentState())
}

func TestResolveAgentState_SingleSessionUsesItsStateDirectly(t *testing.T) {
	s := NewDaemonState()
	s.Sessions["sess-1"] = &Session{SessionID: "sess-1", AgentState: StateRunning}

	assert.Equal(t, StateRunning, s.resolveAgentState())
}

func TestResolveAgentState_MultiSessionRequiresActiveTerminalTagChain(t *testing.T) {
	s := NewDaemonState()
	s.Sessions["sess-1"] = &Session{SessionID: "sess-1", AgentState: StateRunning}
	s.Sessions["sess-2"] = &Session{SessionID: "sess-2", AgentState: StateIdle}
	s.Tags["term-a"] = "sess-1"
	s.Tags["term-b"] = "sess-2"
	s.Terminals = []Terminal{{Index: 0, SessionTag: "term-a"}, {Index: 1, SessionTag: "term-b"}}

	// No active terminal -> no permitted heuristic -> Unknown.
	assert.Equal(t, StateUnknown, s.resolveAgentState())

	idx := 1
	s.ActiveTerminalIndex = &idx
	assert.Equal(t, StateIdle, s.resolveAgentState())

	idx = 0
	s.ActiveTerminalIndex = &idx
	assert.Equal(t, StateRunning, s.resolveAgentState())
}

func TestResolveAgentState_MultiSessionUntaggedActiveTerminalIsUnknown(t *testing.T) {
	s := NewDaemonState()
	s.Sessions["sess-1"] = &Session{SessionID: "sess-1", AgentState: StateRunning}
	s.Sessions["sess-2"] = &Session{SessionID: "sess-2", AgentState: StateIdle}
	idx := 0
	s.Terminals = []Terminal{{Index: 0}}
	s.ActiveTerminalIndex = &idx

	assert.Equal(t, StateUnknown, s.resolveAgentState(), "no fallback heuristic beyond the tag chain")
}

func TestLearnTag_IdempotentForSameSession(t *testing.T) {
	s := NewDaemonState()
	ok, _ := s.learnTag("sess-1", "term-a")
	require.True(t, ok)

	ok, conflict := s.learnTag("sess-1", "term-a")
	assert.True(t, ok)
	assert.Empty(t, conflict)
}

func TestLearnTag_RejectsSecondSessionClaimingSameTag(t *testing.T) {
	s := NewDaemonState()
	s.learnTag("sess-1", "term-a")

	ok, conflict := s.learnTag("sess-2", "term-a")
	assert.False(t, ok)
	assert.Equal(t, "sess-1", conflict)
}

func TestPruneTags_KeepsTagsOfLiveSessions(t *testing.T) {
	s := NewDaemonState()
	s.Sessions["sess-1"] = &Session{SessionID: "sess-1"}
	s.Tags["term-a"] = "sess-1"

	s.pruneTags()

	assert.Contains(t, s.Tags, "term-a")
}

func TestHooksConnected_ActiveAndFreshHookWithinWindow(t *testing.T) {
	s := NewDaemonState()
	now := time.Now()
	s.HooksMode = HooksActive
	s.LastHookAt = now.Add(-1 * time.Second)

	assert.True(t, s.HooksConnected(now))
}

func TestHooksConnected_StaleHookOutsideWindowWithoutForwarder(t *testing.T) {
	s := NewDaemonState()
	now := time.Now()
	s.HooksMode = HooksActive
	s.LastHookAt = now.Add(-1 * time.Hour)

	assert.False(t, s.HooksConnected(now))
}

func TestHooksConnected_ForwarderConnectedAloneDoesNotCountAsFresh(t *testing.T) {
	s := NewDaemonState()
	now := time.Now()
	s.HooksMode = HooksActive
	s.ForwarderConnected = true

	assert.False(t, s.HooksConnected(now), "ForwarderConnected has no producer today and must never stand in for a fresh hook")
}
