package core

import "time"

// EventKind tags the closed set of inbound event variants the reducer
// accepts. Adapters deserialize transport messages into Event values and
// hand them to the reducer one at a time; the reducer switches exhaustively
// on Kind.
type EventKind int

const (
	EventHook EventKind = iota
	EventClientHello
	EventKeypadPress
	EventDialpadButton
	EventAdjustment
	EventPageNav
	EventTerminalsSnapshot
	EventHooksForwarderConnected
	EventHooksForwarderDisconnected
	EventUnknownClientMessage
	EventTick
)

// DialpadButton enumerates the four physical buttons on the dialpad.
type DialpadButton int

const (
	ButtonCtrlC DialpadButton = iota
	ButtonExport
	ButtonEsc
	ButtonEnter
)

// AdjustKind distinguishes the dial (jog wheel, OS-scroll capable) from the
// roller (always moves terminal selection).
type AdjustKind int

const (
	AdjustDial AdjustKind = iota
	AdjustRoller
)

// PageDirection is the direction of a keypad page-navigation input.
type PageDirection int

const (
	PagePrev PageDirection = iota
	PageNext
)

// TerminalRef describes one pty slot as reported by the editor's terminal
// list snapshot.
type TerminalRef struct {
	Index      int
	SessionTag string // empty if the terminal carries no tag
}

// Event is the flat tagged-union representation of every inbound message the
// reducer can process. Only the fields relevant to Kind are populated; the
// zero value of irrelevant fields is never inspected by the reducer. At is
// the adapter-assigned arrival time and is the only channel through which
// wall-clock time enters the core — the reducer never calls time.Now.
type Event struct {
	Kind EventKind
	At   time.Time

	// EventHook
	Hook       HookName
	Matcher    string
	SessionID  string
	SessionTag string // empty means absent
	Payload    []byte // opaque, never interpreted by the reducer

	// EventClientHello
	ClientKind      string
	ProtocolVersion int
	Capabilities    []string

	// EventKeypadPress
	PromptID string

	// EventDialpadButton
	Button DialpadButton

	// EventAdjustment
	AdjustKind AdjustKind
	Delta      int32

	// EventPageNav
	Direction PageDirection

	// EventTerminalsSnapshot
	Terminals     []TerminalRef
	ActiveIndex   *int

	// EventUnknownClientMessage
	UnknownType string
}

func HookEvent(at time.Time, hook HookName, matcher, sessionID, sessionTag string, payload []byte) Event {
	return Event{Kind: EventHook, At: at, Hook: hook, Matcher: matcher, SessionID: sessionID, SessionTag: sessionTag, Payload: payload}
}

func ClientHelloEvent(at time.Time, clientKind string, protocolVersion int, capabilities []string) Event {
	return Event{Kind: EventClientHello, At: at, ClientKind: clientKind, ProtocolVersion: protocolVersion, Capabilities: capabilities}
}

func KeypadPressEvent(at time.Time, promptID string) Event {
	return Event{Kind: EventKeypadPress, At: at, PromptID: promptID}
}

func DialpadButtonEvent(at time.Time, button DialpadButton) Event {
	return Event{Kind: EventDialpadButton, At: at, Button: button}
}

func AdjustmentEvent(at time.Time, kind AdjustKind, delta int32) Event {
	return Event{Kind: EventAdjustment, At: at, AdjustKind: kind, Delta: delta}
}

func PageNavEvent(at time.Time, dir PageDirection) Event {
	return Event{Kind: EventPageNav, At: at, Direction: dir}
}

func TerminalsSnapshotEvent(at time.Time, terminals []TerminalRef, activeIndex *int) Event {
	return Event{Kind: EventTerminalsSnapshot, At: at, Terminals: terminals, ActiveIndex: activeIndex}
}

func HooksForwarderConnectedEvent(at time.Time) Event {
	return Event{Kind: EventHooksForwarderConnected, At: at}
}

func HooksForwarderDisconnectedEvent(at time.Time) Event {
	return Event{Kind: EventHooksForwarderDisconnected, At: at}
}

func UnknownClientMessageEvent(at time.Time, msgType string) Event {
	return Event{Kind: EventUnknownClientMessage, At: at, UnknownType: msgType}
}

func TickEvent(at time.Time) Event {
	return Event{Kind: EventTick, At: at}
}
