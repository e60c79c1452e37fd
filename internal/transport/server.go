package transport

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/EffortlessMetrics/runbookd/internal/config"
	"github.com/EffortlessMetrics/runbookd/internal/core"
)

// EventLog is the optional, non-authoritative diagnostic sink the server
// reports every processed event and its resulting side effects to. The core
// reducer itself never depends on this; it exists purely so an operator can
// ask "what did the daemon see and do" after the fact.
type EventLog interface {
	Append(ctx context.Context, ev core.Event, effects []core.SideEffect)
}

type noopEventLog struct{}

func (noopEventLog) Append(context.Context, core.Event, []core.SideEffect) {}

// Server owns the daemon's authoritative state and every socket connected to
// it. It is the only place in the process that calls DaemonState.Step;
// internal/core itself never runs on a goroutine of its own.
type Server struct {
	mu    sync.Mutex
	state *core.DaemonState
	cfg   *config.RunbookConfig

	clients map[string]*client

	log      zerolog.Logger
	eventLog EventLog
}

// NewServer builds a Server around an already-validated config. The daemon
// starts with a fresh, empty DaemonState — runbookd has no durable state
// across restarts by design.
func NewServer(cfg *config.RunbookConfig, log zerolog.Logger) *Server {
	return &Server{
		state:    core.NewDaemonState(),
		cfg:      cfg,
		clients:  make(map[string]*client),
		log:      log,
		eventLog: noopEventLog{},
	}
}

// SetEventLog installs a diagnostic event sink. Passing nil restores the
// no-op sink.
func (s *Server) SetEventLog(l EventLog) {
	if l == nil {
		l = noopEventLog{}
	}
	s.mu.Lock()
	s.eventLog = l
	s.mu.Unlock()
}

// Step feeds one event through the reducer under the server's lock and fans
// the resulting side effects out to connected clients. It is the single
// choke point every adapter (HTTP handler, WS read loop, cron tick) funnels
// through, which is what keeps DaemonState's mutations serialized.
func (s *Server) Step(ev core.Event) {
	s.mu.Lock()
	effects := s.state.Step(s.cfg, ev)
	snapshotClients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		snapshotClients = append(snapshotClients, c)
	}
	eventLog := s.eventLog
	s.mu.Unlock()

	eventLog.Append(context.Background(), ev, effects)

	for _, effect := range effects {
		s.dispatch(snapshotClients, effect)
	}
}

func (s *Server) dispatch(clients []*client, effect core.SideEffect) {
	switch effect.Kind {
	case core.EffectBroadcastRender:
		s.fanout(clients, func(c *client) bool { return true }, MsgRender, effect.Render)
	case core.EffectNotice:
		s.fanout(clients, func(c *client) bool { return true }, MsgNotice, NoticePayload{Message: effect.Message})
	case core.EffectSendEditorCommand:
		payload := editorCommandPayload(*effect.Command)
		s.fanout(clients, func(c *client) bool { return c.kind == ClientKindEditor }, MsgEditorCommand, payload)
	}
}

func (s *Server) fanout(clients []*client, pick func(*client) bool, msgType string, payload any) {
	now := time.Now()
	env, err := NewEnvelope(now, msgType, payload)
	if err != nil {
		s.log.Error().Err(err).Str("msg_type", msgType).Msg("build outbound envelope")
		return
	}
	data, err := env.Marshal()
	if err != nil {
		s.log.Error().Err(err).Str("msg_type", msgType).Msg("marshal outbound envelope")
		return
	}

	var g errgroup.Group
	for _, c := range clients {
		if !pick(c) {
			continue
		}
		c := c
		g.Go(func() error { return c.send(data) })
	}
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Str("msg_type", msgType).Msg("one or more clients dropped during broadcast")
	}
}

func editorCommandPayload(c core.EditorCommand) EditorCommandPayload {
	p := EditorCommandPayload{Text: c.Text, Newline: c.Newline, Delta: c.Delta, URI: c.URI}
	switch c.Kind {
	case core.CommandSendText:
		p.Kind = "send_text"
	case core.CommandSendKey:
		p.Kind = "send_key"
		p.Key = c.Key.String()
	case core.CommandFocusTerminal:
		p.Kind = "focus_terminal"
	case core.CommandScrollTerminal:
		p.Kind = "scroll_terminal"
	case core.CommandOpenURI:
		p.Kind = "open_uri"
	}
	if c.Target != nil {
		idx := *c.Target
		p.Target = &idx
	}
	return p
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
}
