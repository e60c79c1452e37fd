// Command runbookctl is a debug client for runbookd. Its default action
// connects to /ws as a non-editor observer, renders the keypad/agent-state
// projection it receives, and lets an operator drive page-nav (left/right)
// and the dialpad Enter/Esc buttons from a terminal without the physical
// hardware or the VS Code extension; it sends no keypad presses and no other
// dialpad buttons. Its "tail" subcommand instead queries the optional diagnostic
// event log directly off disk, without touching the running daemon at all.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"nhooyr.io/websocket"

	"github.com/EffortlessMetrics/runbookd/internal/eventlog"
	"github.com/EffortlessMetrics/runbookd/internal/transport"
)

func main() {
	app := &cli.Command{
		Name:  "runbookctl",
		Usage: "Debug TUI client for runbookd's /ws endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "runbookd WS address",
				Value: "ws://127.0.0.1:29381/ws",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "query the diagnostic event log written by --event-log",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "event-log",
						Usage:    "path to the SQLite event log",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "session-id",
						Usage: "filter to one session id",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "max records to print, newest first",
						Value: 100,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return tailEventLog(ctx, c.String("event-log"), c.String("session-id"), int(c.Int("limit")))
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runTUI(ctx, c.String("addr"))
		},
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tailEventLog opens path read-only and prints the most recent records to
// stdout, one per line, newest first. It never touches a running daemon —
// the event log is a plain file an operator can inspect after the fact.
func tailEventLog(ctx context.Context, path, sessionID string, limit int) error {
	r, err := eventlog.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer r.Close()

	records, err := r.Tail(ctx, eventlog.QueryOpts{SessionID: sessionID, Limit: limit})
	if err != nil {
		return fmt.Errorf("tail event log: %w", err)
	}
	for _, rec := range records {
		fmt.Printf("%s  #%d  kind=%d  hook=%q  matcher=%q  session=%q  effects=%s\n",
			rec.At.Format(time.RFC3339), rec.ID, rec.Kind, rec.Hook, rec.Matcher, rec.SessionID, rec.Effects)
	}
	return nil
}

func runTUI(ctx context.Context, addr string) error {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	hello, err := transport.NewEnvelope(time.Now(), transport.MsgClientHello, transport.ClientHelloPayload{
		ClientKind:      "debug_tui",
		ProtocolVersion: transport.ProtocolVersion,
	})
	if err != nil {
		return err
	}
	data, err := hello.Marshal()
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	model := newModel(conn)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	go model.readLoop(ctx, prog)

	_, err = prog.Run()
	return err
}

type renderMsg struct {
	AgentState     string   `json:"agent_state"`
	Armed          *string  `json:"armed"`
	PageIndex      int      `json:"page_index"`
	PageCount      int      `json:"page_count"`
	HooksConnected bool     `json:"hooks_connected"`
}

type noticeMsg struct{ Message string }
type connErrMsg struct{ err error }

type model struct {
	conn *websocket.Conn

	connectedAt time.Time
	lastRender  renderMsg
	haveRender  bool
	notices     []string
	lastErr     error
}

func newModel(conn *websocket.Conn) *model {
	return &model{conn: conn, connectedAt: time.Now()}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) readLoop(ctx context.Context, prog *tea.Program) {
	for {
		_, data, err := m.conn.Read(ctx)
		if err != nil {
			prog.Send(connErrMsg{err: err})
			return
		}
		env, err := transport.UnmarshalEnvelope(data)
		if err != nil {
			continue
		}
		switch env.Type {
		case transport.MsgRender:
			var r renderMsg
			if json.Unmarshal(env.Payload, &r) == nil {
				prog.Send(r)
			}
		case transport.MsgNotice:
			var n transport.NoticePayload
			if json.Unmarshal(env.Payload, &n) == nil {
				prog.Send(noticeMsg{Message: n.Message})
			}
		}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch v.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left":
			m.sendPageNav("prev")
		case "right":
			m.sendPageNav("next")
		case "enter":
			m.sendDialpad("enter")
		case "esc":
			m.sendDialpad("esc")
		}
	case renderMsg:
		m.lastRender = v
		m.haveRender = true
	case noticeMsg:
		m.notices = append(m.notices, v.Message)
		if len(m.notices) > 5 {
			m.notices = m.notices[len(m.notices)-5:]
		}
	case connErrMsg:
		m.lastErr = v.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) sendPageNav(direction string) {
	m.sendEnvelope(transport.MsgPageNav, transport.PageNavPayload{Direction: direction})
}

func (m *model) sendDialpad(button string) {
	m.sendEnvelope(transport.MsgDialpadButton, transport.DialpadButtonPayload{Button: button})
}

func (m *model) sendEnvelope(msgType string, payload any) {
	env, err := transport.NewEnvelope(time.Now(), msgType, payload)
	if err != nil {
		return
	}
	data, err := env.Marshal()
	if err != nil {
		return
	}
	_ = m.conn.Write(context.Background(), websocket.MessageText, data)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("runbookctl") + "\n")
	b.WriteString(dimStyle.Render("connected "+humanize.Time(m.connectedAt)) + "\n\n")

	if !m.haveRender {
		b.WriteString("waiting for first render...\n")
	} else {
		r := m.lastRender
		armed := "none"
		if r.Armed != nil {
			armed = *r.Armed
		}
		fmt.Fprintf(&b, "agent_state:    %s\n", r.AgentState)
		fmt.Fprintf(&b, "armed:          %s\n", armed)
		fmt.Fprintf(&b, "page:           %d/%d\n", r.PageIndex+1, r.PageCount)
		fmt.Fprintf(&b, "hooks_connected: %v\n", r.HooksConnected)
	}

	if len(m.notices) > 0 {
		b.WriteString("\n" + titleStyle.Render("notices") + "\n")
		for _, n := range m.notices {
			b.WriteString("  " + n + "\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("left/right: page  enter: dispatch  esc: cancel arm  q: quit") + "\n")
	return b.String()
}
