package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskbot/internal/model"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadSessionStateMissingUser(t *testing.T) {
	s := newStore(t)

	state, err := s.LoadSessionState(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, state)
	assert.Empty(t, state)
}

func TestSaveSessionStateRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	in := model.SessionState{
		model.StateKeyLastAction: "add",
		model.StateKeyLastAdded:  "buy milk",
	}
	require.NoError(t, s.SaveSessionState(ctx, 1, in))

	out, err := s.LoadSessionState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "add", out[model.StateKeyLastAction])
	assert.Equal(t, "buy milk", out[model.StateKeyLastAdded])
}

func TestSaveSessionStateReplacesEntirely(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSessionState(ctx, 1, model.SessionState{
		model.StateKeyLastAction: "add",
		model.StateKeyLastAdded:  "buy milk",
	}))
	require.NoError(t, s.SaveSessionState(ctx, 1, model.SessionState{
		model.StateKeyLastAction: "x",
	}))

	out, err := s.LoadSessionState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", out[model.StateKeyLastAction])
	assert.NotContains(t, out, model.StateKeyLastAdded)

	// States are per user.
	other, err := s.LoadSessionState(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLoadSessionStateSwallowsCorruption(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_states (user_id, state) VALUES (?, ?)", int64(5), "{not json")
	require.NoError(t, err)

	state, err := s.LoadSessionState(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, state)

	// A NULL state column behaves like a missing row.
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO user_states (user_id, state) VALUES (?, NULL)", int64(6))
	require.NoError(t, err)

	state, err = s.LoadSessionState(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestSaveSessionStateNilMap(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSessionState(ctx, 9, nil))

	state, err := s.LoadSessionState(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, state)
}
