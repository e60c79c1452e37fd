// Package transport adapts the pure core reducer to the outside world: an
// HTTP endpoint for hook delivery and a WebSocket endpoint for connected
// clients (the editor extension and any number of debug/TUI observers). It
// owns every socket, timer, and goroutine the daemon uses; nothing in
// internal/core ever touches either.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProtocolVersion is the envelope protocol version this daemon speaks.
// Clients declare the versions they support in ClientHello; the server
// does not currently refuse a mismatched version, but logs it.
const ProtocolVersion = 1

// Inbound client message types (client -> daemon over /ws).
const (
	MsgClientHello        = "client_hello"
	MsgKeypadPress        = "keypad_press"
	MsgDialpadButton      = "dialpad_button"
	MsgAdjustment         = "adjustment"
	MsgPageNav            = "page_nav"
	MsgTerminalsSnapshot  = "terminals_snapshot"
)

// Outbound message types (daemon -> client over /ws).
const (
	MsgRender        = "render"
	MsgEditorCommand = "editor_command"
	MsgNotice        = "notice"
	MsgHelloAck      = "hello_ack"
)

// ClientKindEditor identifies the one client role allowed to receive
// editor_command messages: the VS Code extension itself. Any other
// declared kind (e.g. "debug_tui") only ever receives render and notice.
const ClientKindEditor = "editor"

// Envelope is the wire format for every WS message, outbound or inbound.
type Envelope struct {
	Type            string          `json:"type"`
	ID              string          `json:"id"`
	TS              int64           `json:"ts"`
	ProtocolVersion int             `json:"protocol_version"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an outbound envelope stamped with the supplied send
// time, keeping wall-clock reads out of the marshaling path itself.
func NewEnvelope(at time.Time, msgType string, payload any) (Envelope, error) {
	typ := strings.TrimSpace(msgType)
	if typ == "" {
		return Envelope{}, errors.New("message type is required")
	}
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		raw = data
	}
	return Envelope{
		Type:            typ,
		ID:              newID("msg"),
		TS:              at.UTC().Unix(),
		ProtocolVersion: ProtocolVersion,
		Payload:         raw,
	}, nil
}

func (e Envelope) Marshal() ([]byte, error) {
	if strings.TrimSpace(e.Type) == "" {
		return nil, errors.New("envelope.type is required")
	}
	return json.Marshal(e)
}

func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	env.Type = strings.TrimSpace(env.Type)
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("invalid envelope: missing type")
	}
	return env, nil
}

// ClientHelloPayload is the body of a client_hello message.
type ClientHelloPayload struct {
	ClientKind      string   `json:"client_kind"`
	ProtocolVersion int      `json:"protocol_version"`
	Capabilities    []string `json:"capabilities,omitempty"`
}

// KeypadPressPayload is the body of a keypad_press message.
type KeypadPressPayload struct {
	PromptID string `json:"prompt_id"`
}

// DialpadButtonPayload is the body of a dialpad_button message.
type DialpadButtonPayload struct {
	Button string `json:"button"`
}

// AdjustmentPayload is the body of an adjustment message.
type AdjustmentPayload struct {
	Kind  string `json:"kind"`
	Delta int32  `json:"delta"`
}

// PageNavPayload is the body of a page_nav message.
type PageNavPayload struct {
	Direction string `json:"direction"`
}

// TerminalRefPayload mirrors core.TerminalRef on the wire.
type TerminalRefPayload struct {
	Index      int    `json:"index"`
	SessionTag string `json:"session_tag,omitempty"`
}

// TerminalsSnapshotPayload is the body of a terminals_snapshot message.
type TerminalsSnapshotPayload struct {
	Terminals     []TerminalRefPayload `json:"terminals"`
	ActiveIndex   *int                  `json:"active_index,omitempty"`
}

// EditorCommandPayload is the outbound body of an editor_command message.
type EditorCommandPayload struct {
	Kind    string `json:"kind"`
	Target  *int   `json:"target,omitempty"`
	Text    string `json:"text,omitempty"`
	Newline bool   `json:"newline,omitempty"`
	Key     string `json:"key,omitempty"`
	Delta   int32  `json:"delta,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// NoticePayload is the outbound body of a notice message.
type NoticePayload struct {
	Message string `json:"message"`
}
