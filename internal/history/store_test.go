package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenAt(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndCount(t *testing.T) {
	store := setupTestStore(t)

	entry := NewEntry("install", []string{"vim", "git"})
	entry.Status = "succeeded"
	entry.DurationMs = 1200

	require.NoError(t, store.Append(entry))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 5; i++ {
		entry := NewEntry("install", []string{"pkg" + string(rune('a'+i))})
		entry.Status = "succeeded"
		require.NoError(t, store.Append(entry))
		time.Sleep(time.Millisecond) // distinct timestamp keys
	}

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, []string{"pkge"}, entries[0].Targets)
	assert.False(t, entries[0].Timestamp.Before(entries[1].Timestamp),
		"entries must come back newest first")

	limited, err := store.List(3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestGet(t *testing.T) {
	store := setupTestStore(t)

	entry := NewEntry("remove", []string{"vim"})
	entry.Status = "succeeded"
	require.NoError(t, store.Append(entry))

	got, err := store.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "remove", got.Kind)

	_, err = store.Get("nonexistent")
	assert.Error(t, err)
}

func TestLast(t *testing.T) {
	store := setupTestStore(t)

	last, err := store.Last()
	require.NoError(t, err)
	assert.Nil(t, last, "empty journal has no last entry")

	first := NewEntry("install", []string{"vim"})
	require.NoError(t, store.Append(first))
	time.Sleep(time.Millisecond)

	second := NewEntry("update-all", nil)
	second.Status = "failed"
	second.Reason = "exit code 1"
	require.NoError(t, store.Append(second))

	last, err = store.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.False(t, last.Succeeded())
}

func TestClear(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(NewEntry("install", []string{"pkg"})))
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, store.Clear())

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)

	old := &Entry{
		ID:        "old-entry",
		Timestamp: time.Now().Add(-48 * time.Hour),
		Kind:      "install",
		Targets:   []string{"old-pkg"},
		Status:    "succeeded",
	}
	require.NoError(t, store.Append(old))

	recent := NewEntry("install", []string{"new-pkg"})
	require.NoError(t, store.Append(recent))

	deleted, err := store.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"new-pkg"}, entries[0].Targets)
}

func TestSummary(t *testing.T) {
	entry := NewEntry("install", []string{"firefox"})
	entry.Status = "succeeded"
	assert.Contains(t, entry.Summary(), "install firefox (succeeded)")

	bare := NewEntry("update-all", nil)
	bare.Status = "cancelled"
	assert.Contains(t, bare.Summary(), "update-all (cancelled)")
}
