package store

import (
	"context"
	"testing"
	"time"

	"tombola/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHistory(t *testing.T) *HistoryStore {
	t.Helper()

	s, err := OpenHistory(context.Background(), ":memory:")
	require.NoError(t, err, "Failed to open in-memory history")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordDraw(t *testing.T) {
	s := setupHistory(t)
	ctx := context.Background()

	s.now = func() time.Time { return time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC) }
	run, err := s.RecordDraw(ctx, "2026", models.Lottery{"A": "B", "B": "C", "C": "A"})
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "2026", run.Game)
	assert.Equal(t, 3, run.Assignments)
	assert.True(t, run.CreatedAt.Equal(time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)))

	assignments, err := s.RunAssignments(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, models.Assignment{RunID: run.ID, Giver: "A", Target: "B"}, assignments[0])
	assert.Equal(t, "C", assignments[2].Giver)
}

func TestListRuns(t *testing.T) {
	s := setupHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)
	for i, game := range []string{"2025", "2026", "2026"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		_, err := s.RecordDraw(ctx, game, models.Lottery{"A": "B", "B": "A"})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, "2026")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].CreatedAt.After(runs[1].CreatedAt))

	runs, err = s.ListRuns(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordEmptyDraw(t *testing.T) {
	s := setupHistory(t)

	run, err := s.RecordDraw(context.Background(), "2026", models.Lottery{})
	require.NoError(t, err)
	assert.Zero(t, run.Assignments)
}
