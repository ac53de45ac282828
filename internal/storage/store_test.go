package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const panelKey = "is_datapanel_open"

func newTestStore(t *testing.T, maxEntries int) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "state.db")
	s, err := NewStore(path, maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_BoolRoundTripAcrossReopen(t *testing.T) {
	s, path := newTestStore(t, 0)

	assert.False(t, s.GetBool(panelKey, false))
	assert.True(t, s.GetBool(panelKey, true))

	require.NoError(t, s.SetBool(panelKey, true))
	require.NoError(t, s.SetBool(panelKey, false))
	require.NoError(t, s.SetBool(panelKey, true))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path, 0)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	assert.True(t, reopened.GetBool(panelKey, false))
}

func TestStore_FetchHistory(t *testing.T) {
	s, _ := newTestStore(t, 0)

	require.NoError(t, s.AddFetch(models.FetchEntry{
		RequestID:  "req-1",
		Kind:       models.KindResults,
		Datasource: "birth_names__table",
		Duration:   120 * time.Millisecond,
		RowCount:   3,
		Success:    true,
	}))
	require.NoError(t, s.AddFetch(models.FetchEntry{
		RequestID:    "req-2",
		Kind:         models.KindSamples,
		Datasource:   "birth_names__table",
		Success:      false,
		ErrorMessage: "boom",
	}))

	entries, err := s.RecentFetches(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "req-2", entries[0].RequestID)
	assert.Equal(t, models.KindSamples, entries[0].Kind)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "boom", entries[0].ErrorMessage)

	assert.Equal(t, "req-1", entries[1].RequestID)
	assert.Equal(t, 120*time.Millisecond, entries[1].Duration)
	assert.Equal(t, 3, entries[1].RowCount)
}

func TestStore_FetchHistoryKeepsExecutedAt(t *testing.T) {
	s, _ := newTestStore(t, 0)

	started := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, s.AddFetch(models.FetchEntry{
		RequestID:  "req-1",
		Kind:       models.KindResults,
		ExecutedAt: started,
		Success:    true,
	}))
	require.NoError(t, s.AddFetch(models.FetchEntry{RequestID: "req-2", Kind: models.KindSamples, Success: true}))

	entries, err := s.RecentFetches(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, started.Equal(entries[1].ExecutedAt), "got %v", entries[1].ExecutedAt)
	assert.WithinDuration(t, time.Now(), entries[0].ExecutedAt, time.Minute)
}

func TestStore_FetchHistoryTrimmed(t *testing.T) {
	s, _ := newTestStore(t, 2)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddFetch(models.FetchEntry{RequestID: id, Kind: models.KindResults, Success: true}))
	}

	entries, err := s.RecentFetches(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].RequestID)
	assert.Equal(t, "b", entries[1].RequestID)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	assert.True(t, m.GetBool("missing", true))

	require.NoError(t, m.SetBool("k", true))
	assert.True(t, m.GetBool("k", false))

	m.FailWrites = true
	assert.Error(t, m.SetBool("k", false))
	assert.True(t, m.GetBool("k", false))
}
