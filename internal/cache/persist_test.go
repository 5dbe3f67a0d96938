package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"pkger/internal/pacman"
	"pkger/internal/runner/runnertest"
)

func newTestCacheWorld(t *testing.T) *runnertest.Fake {
	t.Helper()
	fake := runnertest.New()
	scriptInstalledWorld(fake)
	return fake
}

func newTestCommands(fake *runnertest.Fake) *pacman.Commands {
	return pacman.NewCommands(fake, "yay")
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)

	taken := time.Now().Truncate(time.Second)
	snap := &Snapshot{Source: Official, TakenAt: taken, Records: map[string]Record{
		"firefox": {Name: "firefox", Version: "128.0-1", Source: Official, Repository: "extra"},
		"bash":    {Name: "bash", Version: "5.2-2", Source: Official, Repository: "core", Installed: true},
	}}
	require.NoError(t, store.Save(snap))

	loaded, err := store.Load(Official)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.Len())
	assert.True(t, loaded.TakenAt.Equal(taken))

	rec, ok := loaded.Get("firefox")
	require.True(t, ok)
	assert.Equal(t, "128.0-1", rec.Version)
}

func TestStoreLoadEmptySource(t *testing.T) {
	store, _ := openTestStore(t)

	snap, err := store.Load(AUR)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestStoreSaveReplacesPreviousRecords(t *testing.T) {
	store, _ := openTestStore(t)

	require.NoError(t, store.Save(&Snapshot{Source: Installed, TakenAt: time.Now(), Records: map[string]Record{
		"old-pkg": {Name: "old-pkg", Version: "1.0-1", Source: Installed},
	}}))
	require.NoError(t, store.Save(&Snapshot{Source: Installed, TakenAt: time.Now(), Records: map[string]Record{
		"new-pkg": {Name: "new-pkg", Version: "2.0-1", Source: Installed},
	}}))

	loaded, err := store.Load(Installed)
	require.NoError(t, err)
	_, ok := loaded.Get("old-pkg")
	assert.False(t, ok)
	_, ok = loaded.Get("new-pkg")
	assert.True(t, ok)
}

func TestStoreSchemaMismatchDropsData(t *testing.T) {
	store, path := openTestStore(t)

	require.NoError(t, store.Save(&Snapshot{Source: Official, TakenAt: time.Now(), Records: map[string]Record{
		"firefox": {Name: "firefox", Version: "128.0-1", Source: Official},
	}}))
	require.NoError(t, store.Close())

	// Forge an incompatible schema version.
	db, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketMeta)).Put([]byte(keySchemaVersion), []byte("999"))
	}))
	require.NoError(t, db.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Load(Official)
	require.NoError(t, err)
	assert.Nil(t, snap, "incompatible schema data should be discarded")
}

func TestCachePersistenceAcrossRestart(t *testing.T) {
	fake := newTestCacheWorld(t)
	path := filepath.Join(t.TempDir(), "metadata.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	c := New(newTestCommands(fake), 15*time.Minute, store)

	_, err = c.Refresh(context.Background(), Installed)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store2, err := OpenStore(path)
	require.NoError(t, err)
	defer store2.Close()

	c2 := New(newTestCommands(fake), 15*time.Minute, store2)
	snap := c2.Snapshot(Installed)
	assert.Equal(t, 3, snap.Len(), "restart should serve persisted snapshot")
	assert.True(t, c2.Stale(Installed), "persisted snapshot is served but marked for refresh")
}
