package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tadeyemo32/lead-scraper/db"
	"github.com/tadeyemo32/lead-scraper/models"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	database, err := db.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewRunStore(database)
}

func TestRunStoreRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, status := range []string{"ok", "upstream_rate_limit", "ok"} {
		require.NoError(t, store.Record(ctx, models.RunRecord{
			ID:             string(rune('a' + i)),
			Query:          `site:linkedin.com "NYC"`,
			Caller:         "1.2.3.4",
			Status:         status,
			ResultsCount:   i,
			TotalProcessed: 10 * i,
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			Duration:       1500 * time.Millisecond,
		}))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, "upstream_rate_limit", runs[1].Status)
	assert.Equal(t, 10, runs[1].TotalProcessed)
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.True(t, base.Add(2*time.Minute).Equal(runs[0].StartedAt))
}

func TestNilRunStoreIsNoop(t *testing.T) {
	var store *RunStore
	assert.NoError(t, store.Record(context.Background(), models.RunRecord{ID: "x"}))
	runs, err := store.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}
