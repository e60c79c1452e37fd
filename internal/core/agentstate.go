// Package core implements the event-sourced state core of runbookd: the
// reducer, the authoritative DaemonState it mutates, and the render
// projection consumed by connected clients. Everything here is synchronous
// and performs no I/O; adapters own sockets, clocks, and files.
package core

// AgentState is the closed set of states a session can be rendered in. The
// daemon never infers a state outside this set.
type AgentState int

const (
	StateUnknown AgentState = iota
	StateSent
	StateIdle
	StateRunning
	StateWaitingPermission
	StateWaitingInput
	StateComplete
	StateSettled
	StateEnded
	StateBlocked
)

func (s AgentState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateSent:
		return "sent"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateWaitingPermission:
		return "waiting_permission"
	case StateWaitingInput:
		return "waiting_input"
	case StateComplete:
		return "complete"
	case StateSettled:
		return "settled"
	case StateEnded:
		return "ended"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

func (s AgentState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// HooksMode tracks whether the daemon has ever observed a hook event. It
// flips to Active on first hook and never flips back within a process
// lifetime.
type HooksMode int

const (
	HooksAbsent HooksMode = iota
	HooksActive
)

func (m HooksMode) String() string {
	if m == HooksActive {
		return "active"
	}
	return "absent"
}

// HookName enumerates the hook lifecycle names the agent loop emits.
type HookName string

const (
	HookNotification     HookName = "Notification"
	HookUserPromptSubmit HookName = "UserPromptSubmit"
	HookPreToolUse       HookName = "PreToolUse"
	HookPostToolUse      HookName = "PostToolUse"
	HookPermissionReq    HookName = "PermissionRequest"
	HookTaskCompleted    HookName = "TaskCompleted"
	HookStop             HookName = "Stop"
	HookSessionStart     HookName = "SessionStart"
	HookSessionEnd       HookName = "SessionEnd"
	HookRunbookPolicy    HookName = "RunbookPolicy"
)

const (
	MatcherIdlePrompt        = "idle_prompt"
	MatcherPermissionPrompt  = "permission_prompt"
	MatcherElicitationDialog = "elicitation_dialog"
	MatcherBlocked           = "blocked"
)

// stickyOverrides lists the targets allowed to clear a sticky Blocked state.
var stickyOverrides = map[AgentState]bool{
	StateRunning:  true,
	StateIdle:     true,
	StateComplete: true,
	StateSettled:  true,
	StateEnded:    true,
}

// hookTarget resolves the canonical (hook, matcher) -> target-state table.
// The bool return reports whether the pair is recognized; SessionStart and
// SessionEnd are handled separately by the reducer since they affect session
// lifecycle rather than a plain state assignment.
func hookTarget(hook HookName, matcher string) (AgentState, bool) {
	switch hook {
	case HookNotification:
		switch matcher {
		case MatcherIdlePrompt:
			return StateIdle, true
		case MatcherPermissionPrompt:
			return StateWaitingPermission, true
		case MatcherElicitationDialog:
			return StateWaitingInput, true
		}
		return StateUnknown, false
	case HookUserPromptSubmit, HookPreToolUse, HookPostToolUse:
		return StateRunning, true
	case HookPermissionReq:
		return StateWaitingPermission, true
	case HookTaskCompleted:
		return StateComplete, true
	case HookStop:
		return StateSettled, true
	case HookRunbookPolicy:
		if matcher == MatcherBlocked {
			return StateBlocked, true
		}
		return StateUnknown, false
	default:
		return StateUnknown, false
	}
}
