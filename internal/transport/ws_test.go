package transport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/EffortlessMetrics/runbookd/internal/core"
)

func TestParseButton(t *testing.T) {
	cases := []struct {
		in   string
		want core.DialpadButton
		ok   bool
	}{
		{"ctrl_c", core.ButtonCtrlC, true},
		{"export", core.ButtonExport, true},
		{"esc", core.ButtonEsc, true},
		{"enter", core.ButtonEnter, true},
		{"bogus", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseButton(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestParseAdjustKind(t *testing.T) {
	cases := []struct {
		in   string
		want core.AdjustKind
		ok   bool
	}{
		{"dial", core.AdjustDial, true},
		{"roller", core.AdjustRoller, true},
		{"knob", 0, false},
	}
	for _, c := range cases {
		got, ok := parseAdjustKind(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

func TestParsePageDirection(t *testing.T) {
	cases := []struct {
		in   string
		want core.PageDirection
		ok   bool
	}{
		{"prev", core.PagePrev, true},
		{"next", core.PageNext, true},
		{"sideways", 0, false},
	}
	for _, c := range cases {
		got, ok := parsePageDirection(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, c.want, got, c.in)
		}
	}
}

// TestHandleInbound_KeypadPressArmsThePrompt exercises the routing from a
// decoded wire envelope through to a core.Event, without a real socket.
func TestHandleInbound_KeypadPressArmsThePrompt(t *testing.T) {
	s := testServer(t)
	c := &client{id: "c1", kind: "debug_tui"}

	env, err := NewEnvelope(time.Now(), MsgKeypadPress, KeypadPressPayload{PromptID: "continue"})
	require.NoError(t, err)

	s.handleInbound(c, env)

	require.NotNil(t, s.state.Armed)
	assert.Equal(t, "continue", *s.state.Armed)
}

// TestHandleInbound_MalformedDialpadButtonLeavesArmUntouched checks that an
// unrecognized button string never reaches applyDialpadButton.
func TestHandleInbound_MalformedDialpadButtonLeavesArmUntouched(t *testing.T) {
	s := testServer(t)
	c := &client{id: "c1", kind: "debug_tui"}

	press, err := NewEnvelope(time.Now(), MsgKeypadPress, KeypadPressPayload{PromptID: "continue"})
	require.NoError(t, err)
	s.handleInbound(c, press)
	require.NotNil(t, s.state.Armed)

	env, err := NewEnvelope(time.Now(), MsgDialpadButton, DialpadButtonPayload{Button: "sideways"})
	require.NoError(t, err)
	s.handleInbound(c, env)

	require.NotNil(t, s.state.Armed, "a malformed button must not clear or act on the arm")
	assert.Equal(t, "continue", *s.state.Armed)
}

func TestHandleInbound_UnknownMessageTypeDoesNotPanic(t *testing.T) {
	s := testServer(t)
	c := &client{id: "c1", kind: "debug_tui"}

	env, err := NewEnvelope(time.Now(), "something_new", nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.handleInbound(c, env) })
}

func dialWS(t *testing.T, srv *httptest.Server) (*websocket.Conn, context.Context) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn, ctx
}

func readEnvelopeFrom(t *testing.T, ctx context.Context, conn *websocket.Conn) Envelope {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	env, err := UnmarshalEnvelope(data)
	require.NoError(t, err)
	return env
}

func writeEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn, env Envelope) {
	t.Helper()
	data, err := env.Marshal()
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

// TestWSHandler_RejectsFirstMessageThatIsNotClientHello checks the hello
// handshake requirement: the server closes the connection if the first
// frame is not client_hello.
func TestWSHandler_RejectsFirstMessageThatIsNotClientHello(t *testing.T) {
	s := testServer(t)
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()

	conn, ctx := dialWS(t, srv)

	env, err := NewEnvelope(time.Now(), MsgPageNav, PageNavPayload{Direction: "next"})
	require.NoError(t, err)
	writeEnvelope(t, ctx, conn, env)

	_, _, err = conn.Read(ctx)
	assert.Error(t, err, "server must close the connection when the first message is not client_hello")
}

// TestWSHandler_HelloThenKeypadPressArmsAndBroadcasts drives a full
// handshake and one round trip over a real socket, checking the hello_ack
// and the render broadcast both carry what the reducer produced.
func TestWSHandler_HelloThenKeypadPressArmsAndBroadcasts(t *testing.T) {
	s := testServer(t)
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()

	conn, ctx := dialWS(t, srv)

	hello, err := NewEnvelope(time.Now(), MsgClientHello, ClientHelloPayload{ClientKind: "debug_tui", ProtocolVersion: ProtocolVersion})
	require.NoError(t, err)
	writeEnvelope(t, ctx, conn, hello)

	// The hello event is the first Step call against a fresh server, so it
	// always produces an initial render broadcast ahead of the hello_ack
	// that serveConn sends right after.
	firstRender := readEnvelopeFrom(t, ctx, conn)
	assert.Equal(t, MsgRender, firstRender.Type)

	ack := readEnvelopeFrom(t, ctx, conn)
	assert.Equal(t, MsgHelloAck, ack.Type)

	press, err := NewEnvelope(time.Now(), MsgKeypadPress, KeypadPressPayload{PromptID: "continue"})
	require.NoError(t, err)
	writeEnvelope(t, ctx, conn, press)

	render := readEnvelopeFrom(t, ctx, conn)
	require.Equal(t, MsgRender, render.Type)

	var model core.RenderModel
	require.NoError(t, json.Unmarshal(render.Payload, &model))
	require.NotNil(t, model.Armed)
	assert.Equal(t, "continue", *model.Armed)
}

// TestWSHandler_EditorHelloDoesNotFabricateForwarderLiveness is the
// regression test for the forwarder-liveness defect: connecting as the
// editor client kind must never be treated as evidence the hook forwarder
// is alive. Only real hook traffic may do that.
func TestWSHandler_EditorHelloDoesNotFabricateForwarderLiveness(t *testing.T) {
	s := testServer(t)
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()

	conn, ctx := dialWS(t, srv)

	hello, err := NewEnvelope(time.Now(), MsgClientHello, ClientHelloPayload{ClientKind: ClientKindEditor, ProtocolVersion: ProtocolVersion})
	require.NoError(t, err)
	writeEnvelope(t, ctx, conn, hello)

	// Drain the initial render broadcast and the hello_ack that follow.
	readEnvelopeFrom(t, ctx, conn)
	readEnvelopeFrom(t, ctx, conn)

	s.mu.Lock()
	forwarderConnected := s.state.ForwarderConnected
	hooksConnected := s.state.HooksConnected(time.Now())
	s.mu.Unlock()

	assert.False(t, forwarderConnected, "an editor client's WS hello must never set ForwarderConnected")
	assert.False(t, hooksConnected, "no hook has ever arrived, so hooks_connected must read false regardless of the editor being attached")
}

// TestWSHandler_ClosesConnectionWithoutClientHelloWithinTimeout exercises
// the hello timeout: a client that never sends client_hello gets dropped.
func TestWSHandler_ClosesConnectionWithoutClientHelloWithinTimeout(t *testing.T) {
	s := testServer(t)
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), helloTimeout+5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") }()

	_, _, err = conn.Read(ctx)
	assert.Error(t, err, "server must close the connection once the hello timeout elapses with no hello received")
}
