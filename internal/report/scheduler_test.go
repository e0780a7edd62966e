package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/stats"
	"github.com/nhle/taskbot/tests/testutil"
)

// mockDispatcher records deliveries and fails for configured users.
type mockDispatcher struct {
	mu      sync.Mutex
	sent    []int64
	reports map[int64]model.Report
	failFor map[int64]bool
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{
		reports: make(map[int64]model.Report),
		failFor: make(map[int64]bool),
	}
}

func (m *mockDispatcher) SendReport(ctx context.Context, userID int64, r model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failFor[userID] {
		return errors.New("send failed")
	}
	m.sent = append(m.sent, userID)
	m.reports[userID] = r
	return nil
}

func (m *mockDispatcher) sentTo() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.sent...)
}

func TestRunOnceFansOutToAllUsers(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, userID := range []int64{1, 2, 3} {
		_, err := s.AddTask(ctx, userID, "task")
		require.NoError(t, err)
	}
	found, err := s.MarkDoneByOrdinal(ctx, 2, 1)
	require.NoError(t, err)
	require.True(t, found)

	d := newMockDispatcher()
	sched := New(s, stats.NewAggregator(s, time.UTC), d, 20, 0, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, sched.RunOnce(ctx))

	assert.ElementsMatch(t, []int64{1, 2, 3}, d.sent)
	assert.Equal(t, 1, d.reports[2].DoneTotal)
	assert.Equal(t, 0, d.reports[1].DoneTotal)

	// Each delivered report leaves an audit trail.
	state, err := s.LoadSessionState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "daily_report", state[model.StateKeyLastAction])
}

func TestRunOnceIsolatesFailingRecipient(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, userID := range []int64{1, 2, 3} {
		_, err := s.AddTask(ctx, userID, "task")
		require.NoError(t, err)
	}

	d := newMockDispatcher()
	d.failFor[2] = true
	sched := New(s, stats.NewAggregator(s, time.UTC), d, 20, 0, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, sched.RunOnce(ctx))

	assert.ElementsMatch(t, []int64{1, 3}, d.sent)

	// The failed recipient gets no audit trail entry.
	state, err := s.LoadSessionState(ctx, 2)
	require.NoError(t, err)
	assert.NotContains(t, state, model.StateKeyLastAction)
}

func TestRunOnceNoUsers(t *testing.T) {
	s := testutil.NewTestStore(t)
	d := newMockDispatcher()
	sched := New(s, stats.NewAggregator(s, time.UTC), d, 20, 0, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Empty(t, d.sent)
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	sched := New(nil, nil, nil, 20, 0, loc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before trigger time fires today",
			now:  time.Date(2024, 6, 5, 10, 0, 0, 0, loc),
			want: time.Date(2024, 6, 5, 20, 0, 0, 0, loc),
		},
		{
			name: "after trigger time rolls to tomorrow",
			now:  time.Date(2024, 6, 5, 20, 30, 0, 0, loc),
			want: time.Date(2024, 6, 6, 20, 0, 0, 0, loc),
		},
		{
			name: "exactly at trigger time rolls to tomorrow",
			now:  time.Date(2024, 6, 5, 20, 0, 0, 0, loc),
			want: time.Date(2024, 6, 6, 20, 0, 0, 0, loc),
		},
		{
			name: "now in another zone still schedules in loc",
			now:  time.Date(2024, 6, 5, 19, 0, 0, 0, time.UTC), // 21:00 local
			want: time.Date(2024, 6, 6, 20, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sched.nextRun(tt.now)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestTriggerRunsImmediately(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.AddTask(ctx, 1, "task")
	require.NoError(t, err)

	d := newMockDispatcher()
	// Scheduled far away; only Trigger should cause a run.
	sched := New(s, stats.NewAggregator(s, time.UTC), d, 23, 59, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sched.Start()
	defer sched.Stop()

	sched.Trigger()

	assert.Eventually(t, func() bool {
		return len(d.sentTo()) > 0
	}, 2*time.Second, 10*time.Millisecond)
}
