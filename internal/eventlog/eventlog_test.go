package eventlog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EffortlessMetrics/runbookd/internal/core"
	"github.com/EffortlessMetrics/runbookd/internal/eventlog"
)

func TestStore_AppendThenTailRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	store, err := eventlog.Open(path)
	require.NoError(t, err)
	defer store.Close()

	ev := core.HookEvent(time.Now(), core.HookUserPromptSubmit, "", "sess-1", "", nil)
	effects := []core.SideEffect{}
	store.Append(context.Background(), ev, effects)

	reader, err := eventlog.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	records, err := reader.Tail(context.Background(), eventlog.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sess-1", records[0].SessionID)
	assert.Equal(t, string(core.HookUserPromptSubmit), records[0].Hook)
}

func TestStore_FiltersTailBySessionID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := eventlog.Open(path)
	require.NoError(t, err)
	defer store.Close()

	store.Append(context.Background(), core.HookEvent(time.Now(), core.HookSessionStart, "", "sess-1", "", nil), nil)
	store.Append(context.Background(), core.HookEvent(time.Now(), core.HookSessionStart, "", "sess-2", "", nil), nil)

	reader, err := eventlog.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	records, err := reader.Tail(context.Background(), eventlog.QueryOpts{SessionID: "sess-2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sess-2", records[0].SessionID)
}
