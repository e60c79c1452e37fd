package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one row of the diagnostic event log, as read back by tooling.
type Record struct {
	ID        int64
	At        time.Time
	Kind      int
	Hook      string
	Matcher   string
	SessionID string
	Effects   string
}

// QueryOpts filters a Tail call.
type QueryOpts struct {
	SessionID string
	Limit     int
}

// Reader opens an existing event log read-only, for a debug client to
// inspect without contending with the daemon's writer connection.
type Reader struct {
	db *sql.DB
}

// OpenReader opens path in SQLite read-only mode.
func OpenReader(path string) (*Reader, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Tail returns the most recent records, newest first, optionally filtered
// to one session.
func (r *Reader) Tail(ctx context.Context, opts QueryOpts) ([]Record, error) {
	query := "SELECT id, at, kind, hook, matcher, session_id, effects FROM events WHERE 1=1"
	var args []any
	if opts.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, opts.SessionID)
	}
	query += " ORDER BY id DESC"
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var atStr string
		if err := rows.Scan(&rec.ID, &atStr, &rec.Kind, &rec.Hook, &rec.Matcher, &rec.SessionID, &rec.Effects); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, atStr); err == nil {
			rec.At = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
