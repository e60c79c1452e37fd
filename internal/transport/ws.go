package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/EffortlessMetrics/runbookd/internal/appinfo"
	"github.com/EffortlessMetrics/runbookd/internal/core"
)

// maxWSMessageBytes bounds a single inbound frame. Hook delivery never goes
// over this socket, so the limit can stay small.
const maxWSMessageBytes = 64 << 10

// helloTimeout is how long a newly accepted connection has to send its
// client_hello before the server gives up on it.
const helloTimeout = 10 * time.Second

// WSHandler returns the http.Handler for the /ws endpoint: every connected
// client, editor extension or debug observer alike, attaches here.
func (s *Server) WSHandler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}
	conn.SetReadLimit(maxWSMessageBytes)
	s.serveConn(r.Context(), conn)
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	helloCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	env, err := s.readEnvelope(helloCtx, conn)
	cancel()
	if err != nil || env.Type != MsgClientHello {
		_ = conn.Close(websocket.StatusPolicyViolation, "client_hello required")
		return
	}
	var hello ClientHelloPayload
	if len(env.Payload) > 0 {
		_ = json.Unmarshal(env.Payload, &hello)
	}
	kind := strings.TrimSpace(hello.ClientKind)
	if kind == "" {
		kind = "unknown"
	}
	if hello.ProtocolVersion != ProtocolVersion {
		s.log.Warn().Int("client_protocol_version", hello.ProtocolVersion).Int("protocol_version", ProtocolVersion).Str("client_kind", kind).Msg("client protocol version mismatch")
	}

	c := newClient(newID("client"), conn)
	c.kind = kind
	s.addClient(c)
	defer func() {
		c.close()
		s.removeClient(c)
	}()

	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()
	go c.writeLoop(writeCtx)

	now := time.Now()
	s.Step(core.ClientHelloEvent(now, kind, hello.ProtocolVersion, hello.Capabilities))

	if ack, err := NewEnvelope(now, MsgHelloAck, map[string]any{"protocol_version": ProtocolVersion, "daemon_version": appinfo.Display()}); err == nil {
		if data, err := ack.Marshal(); err == nil {
			_ = c.send(data)
		}
	}

	for {
		env, err := s.readEnvelope(ctx, conn)
		if err != nil {
			return
		}
		s.handleInbound(c, env)
	}
}

func (s *Server) readEnvelope(ctx context.Context, conn *websocket.Conn) (Envelope, error) {
	mt, data, err := conn.Read(ctx)
	if err != nil {
		return Envelope{}, err
	}
	if mt != websocket.MessageText {
		return Envelope{}, errClientClosed
	}
	return UnmarshalEnvelope(data)
}

func (s *Server) handleInbound(c *client, env Envelope) {
	now := time.Now()
	switch env.Type {
	case MsgKeypadPress:
		var p KeypadPressPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		s.Step(core.KeypadPressEvent(now, p.PromptID))
	case MsgDialpadButton:
		var p DialpadButtonPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		btn, ok := parseButton(p.Button)
		if !ok {
			s.Step(core.UnknownClientMessageEvent(now, env.Type))
			return
		}
		s.Step(core.DialpadButtonEvent(now, btn))
	case MsgAdjustment:
		var p AdjustmentPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		kind, ok := parseAdjustKind(p.Kind)
		if !ok {
			s.Step(core.UnknownClientMessageEvent(now, env.Type))
			return
		}
		s.Step(core.AdjustmentEvent(now, kind, p.Delta))
	case MsgPageNav:
		var p PageNavPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		dir, ok := parsePageDirection(p.Direction)
		if !ok {
			s.Step(core.UnknownClientMessageEvent(now, env.Type))
			return
		}
		s.Step(core.PageNavEvent(now, dir))
	case MsgTerminalsSnapshot:
		var p TerminalsSnapshotPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		refs := make([]core.TerminalRef, len(p.Terminals))
		for i, t := range p.Terminals {
			refs[i] = core.TerminalRef{Index: t.Index, SessionTag: t.SessionTag}
		}
		s.Step(core.TerminalsSnapshotEvent(now, refs, p.ActiveIndex))
	default:
		s.Step(core.UnknownClientMessageEvent(now, env.Type))
	}
}

func parseButton(s string) (core.DialpadButton, bool) {
	switch s {
	case "ctrl_c":
		return core.ButtonCtrlC, true
	case "export":
		return core.ButtonExport, true
	case "esc":
		return core.ButtonEsc, true
	case "enter":
		return core.ButtonEnter, true
	default:
		return 0, false
	}
}

func parseAdjustKind(s string) (core.AdjustKind, bool) {
	switch s {
	case "dial":
		return core.AdjustDial, true
	case "roller":
		return core.AdjustRoller, true
	default:
		return 0, false
	}
}

func parsePageDirection(s string) (core.PageDirection, bool) {
	switch s {
	case "prev":
		return core.PagePrev, true
	case "next":
		return core.PageNext, true
	default:
		return 0, false
	}
}
