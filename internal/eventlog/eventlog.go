// Package eventlog provides a write-only, non-authoritative SQLite record of
// every event the daemon processed and the side effects it produced. It is
// strictly diagnostic: nothing in internal/core or internal/transport reads
// it back to make a decision, and the daemon runs identically with it
// disabled.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver registered as "sqlite"

	"github.com/EffortlessMetrics/runbookd/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	at         TEXT NOT NULL,
	kind       INTEGER NOT NULL,
	hook       TEXT,
	matcher    TEXT,
	session_id TEXT,
	effects    TEXT NOT NULL
);
`

// Store is an append-only SQLite-backed event/effect log opened with the
// same WAL + busy-timeout defaults as the rest of the corpus uses for
// single-writer SQLite databases.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and ensures its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection. Safe to call once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append satisfies transport.EventLog without either package importing the
// other: the method set matches structurally. Failures are logged by the
// caller, never escalated, since diagnostics must never affect daemon
// behavior.
func (s *Store) Append(ctx context.Context, ev core.Event, effects []core.SideEffect) {
	if s == nil || s.db == nil {
		return
	}
	summaries := make([]effectSummary, len(effects))
	for i, e := range effects {
		summaries[i] = summarizeEffect(e)
	}
	data, err := json.Marshal(summaries)
	if err != nil {
		return
	}
	_, _ = s.db.ExecContext(ctx,
		`INSERT INTO events (at, kind, hook, matcher, session_id, effects) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.At.UTC().Format(time.RFC3339Nano), int(ev.Kind), string(ev.Hook), ev.Matcher, ev.SessionID, string(data),
	)
}

type effectSummary struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

func summarizeEffect(e core.SideEffect) effectSummary {
	switch e.Kind {
	case core.EffectBroadcastRender:
		return effectSummary{Kind: "broadcast_render"}
	case core.EffectSendEditorCommand:
		return effectSummary{Kind: "send_editor_command"}
	case core.EffectNotice:
		return effectSummary{Kind: "notice", Message: e.Message}
	default:
		return effectSummary{Kind: "unknown"}
	}
}
