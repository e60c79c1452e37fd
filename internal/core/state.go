package core

import "time"

// Session is one live agent run, keyed by session_id in DaemonState.Sessions.
// It is created on the first hook event naming its id and destroyed on
// SessionEnd.
type Session struct {
	SessionID   string
	SessionTag  string // empty if no tag has been learned for this session
	AgentState  AgentState
	LastEventAt time.Time
}

// Terminal is one editor-reported pty slot. The full set is replaced in bulk
// by each TerminalsSnapshot event.
type Terminal struct {
	Index      int
	SessionTag string // empty if untagged
}

// DaemonState is the single authoritative, mutable data model. It is owned
// exclusively by the reducer; no other component reads it to make decisions.
// Sessions are held in an arena keyed by session_id; the tag->session_id map
// is a secondary index rebuilt by pruning, never by back-pointers.
type DaemonState struct {
	Sessions map[string]*Session // session_id -> session
	Tags     map[string]string   // session_tag -> session_id

	Terminals            []Terminal
	ActiveTerminalIndex  *int

	Armed *string // armed prompt id; at most one at a time

	PageIndex int

	HooksMode  HooksMode
	LastHookAt time.Time

	// ForwarderConnected tracks EventHooksForwarderConnected/Disconnected,
	// reserved for a genuine forwarder-liveness signal (e.g. a heartbeat
	// ping from the hook-forwarder CLI itself). The current forwarder is a
	// stateless HTTP POSTer with no such signal, so nothing produces these
	// events today and HooksConnected does not consult this field — it
	// must never be inferred from an unrelated client's WebSocket state.
	ForwarderConnected bool

	LastEndedState   *AgentState
	LastEndedStateAt time.Time

	// degradedSent latches the one-shot "we just dispatched text with no
	// hook truth to confirm it" signal used to render StateSent. Only
	// consulted while HooksMode is Absent.
	degradedSent bool

	// lastRender and hasLastRender cache the most recently broadcast render
	// model purely to suppress duplicate broadcasts; they hold no
	// information that ProjectRender cannot recompute from the rest of this
	// struct, so they are a pure memo, not a second source of truth.
	lastRender    RenderModel
	hasLastRender bool
}

// NewDaemonState builds an empty, invariant-satisfying state: no sessions,
// no tags, no terminals, nothing armed, page 0, hooks absent.
func NewDaemonState() *DaemonState {
	return &DaemonState{
		Sessions: make(map[string]*Session),
		Tags:     make(map[string]string),
	}
}

func (s *DaemonState) session(id string) (*Session, bool) {
	sess, ok := s.Sessions[id]
	return sess, ok
}

func (s *DaemonState) liveSessionCount() int {
	return len(s.Sessions)
}
