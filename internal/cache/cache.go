package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pkger/internal/logger"
	"pkger/internal/pacman"
)

// Cache holds one snapshot per source behind atomic pointers. Reads never
// block on a refresh; a refresh builds a complete new snapshot and swaps it
// in. Only the orchestrator's finalizing path and background maintenance
// call Refresh/Invalidate.
type Cache struct {
	cmds      *pacman.Commands
	staleness time.Duration
	store     *Store // optional on-disk persistence

	snaps map[Source]*atomic.Pointer[Snapshot]
	stale map[Source]*atomic.Bool

	// refreshMu serializes refreshes per source so concurrent callers do
	// not duplicate tool invocations. Readers are unaffected.
	refreshMu map[Source]*sync.Mutex
}

// New creates a Cache reading through cmds. A nil store disables
// persistence.
func New(cmds *pacman.Commands, staleness time.Duration, store *Store) *Cache {
	c := &Cache{
		cmds:      cmds,
		staleness: staleness,
		store:     store,
		snaps:     map[Source]*atomic.Pointer[Snapshot]{},
		stale:     map[Source]*atomic.Bool{},
		refreshMu: map[Source]*sync.Mutex{},
	}
	for _, src := range Sources {
		ptr := &atomic.Pointer[Snapshot]{}
		ptr.Store(emptySnapshot(src))
		c.snaps[src] = ptr
		flag := &atomic.Bool{}
		flag.Store(true) // nothing loaded yet
		c.stale[src] = flag
		c.refreshMu[src] = &sync.Mutex{}
	}

	if store != nil {
		c.loadPersisted()
	}

	return c
}

// loadPersisted seeds snapshots from the on-disk store. Loaded data is
// served immediately but stays marked stale so background refresh replaces
// it with live data.
func (c *Cache) loadPersisted() {
	for _, src := range Sources {
		snap, err := c.store.Load(src)
		if err != nil {
			logger.Warn("cache: failed to load persisted snapshot", "source", src, "error", err)
			continue
		}
		if snap != nil {
			c.snaps[src].Store(snap)
		}
	}
}

// Snapshot returns the current snapshot for a source, never nil and never
// partially built.
func (c *Cache) Snapshot(source Source) *Snapshot {
	return c.snaps[source].Load()
}

// Invalidate marks sources stale so the next maintenance pass refreshes
// them. Existing data keeps being served.
func (c *Cache) Invalidate(sources ...Source) {
	for _, src := range sources {
		c.stale[src].Store(true)
	}
}

// Stale reports whether a source needs a background refresh: explicitly
// invalidated, never loaded, or older than the staleness threshold.
func (c *Cache) Stale(source Source) bool {
	if c.stale[source].Load() {
		return true
	}
	snap := c.Snapshot(source)
	return time.Since(snap.TakenAt) > c.staleness
}

// Refresh rebuilds the snapshot for one source from the external tools and
// publishes it atomically. Concurrent refreshes of the same source are
// serialized; readers keep seeing the old snapshot until the swap.
func (c *Cache) Refresh(ctx context.Context, source Source) (*Snapshot, error) {
	mu := c.refreshMu[source]
	mu.Lock()
	defer mu.Unlock()

	var (
		snap *Snapshot
		err  error
	)
	switch source {
	case Official:
		snap, err = c.refreshOfficial(ctx)
	case AUR:
		snap, err = c.refreshAUR(ctx)
	case Installed:
		snap, err = c.refreshInstalled(ctx)
	}
	if err != nil {
		return nil, err
	}

	c.snaps[source].Store(snap)
	c.stale[source].Store(false)

	if c.store != nil {
		if err := c.store.Save(snap); err != nil {
			logger.Warn("cache: failed to persist snapshot", "source", source, "error", err)
		}
	}

	return snap, nil
}

// RefreshStale refreshes every stale source, retaining the old snapshot on
// failure. Intended for the background maintenance worker; errors are
// logged, never surfaced.
func (c *Cache) RefreshStale(ctx context.Context) {
	for _, src := range Sources {
		if !c.Stale(src) {
			continue
		}
		if _, err := c.Refresh(ctx, src); err != nil {
			logger.Warn("cache: background refresh failed, keeping stale snapshot",
				"source", src, "error", err)
		}
	}
}

func (c *Cache) refreshOfficial(ctx context.Context) (*Snapshot, error) {
	catalog, err := c.cmds.ListRepoCatalog(ctx)
	if err != nil {
		return nil, err
	}

	records := make(map[string]Record, len(catalog))
	for _, p := range catalog {
		records[p.Name] = Record{
			Name:       p.Name,
			Version:    p.Version,
			Source:     Official,
			Repository: p.Repository,
			Installed:  p.Installed,
		}
	}
	return &Snapshot{Source: Official, TakenAt: time.Now(), Records: records}, nil
}

func (c *Cache) refreshAUR(ctx context.Context) (*Snapshot, error) {
	foreign, err := c.cmds.ListForeign(ctx)
	if err != nil {
		return nil, err
	}

	records := make(map[string]Record, len(foreign))
	for _, p := range foreign {
		records[p.Name] = Record{
			Name:       p.Name,
			Version:    p.Version,
			Source:     AUR,
			Repository: "aur",
			Installed:  true,
		}
	}

	// Newer AUR versions come from the helper's update listing. A missing
	// helper only costs us outdated flags, not the snapshot.
	updates, err := c.cmds.ListAURUpdates(ctx)
	if err != nil {
		logger.Warn("cache: AUR update listing failed", "error", err)
	}
	for _, u := range updates {
		rec, ok := records[u.Name]
		if !ok {
			continue
		}
		rec.Version = u.NewVersion
		records[u.Name] = rec
	}

	return &Snapshot{Source: AUR, TakenAt: time.Now(), Records: records}, nil
}

func (c *Cache) refreshInstalled(ctx context.Context) (*Snapshot, error) {
	installed, err := c.cmds.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}

	records := make(map[string]Record, len(installed))
	for _, p := range installed {
		records[p.Name] = Record{
			Name:       p.Name,
			Version:    p.Version,
			Source:     Installed,
			Repository: "installed",
			Installed:  true,
		}
	}

	updates, err := c.cmds.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range updates {
		rec, ok := records[u.Name]
		if !ok {
			continue
		}
		rec.AvailableVersion = u.NewVersion
		rec.Outdated = true
		records[u.Name] = rec
	}

	orphans, err := c.cmds.ListOrphans(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range orphans {
		rec, ok := records[name]
		if !ok {
			continue
		}
		rec.Orphan = true
		records[name] = rec
	}

	return &Snapshot{Source: Installed, TakenAt: time.Now(), Records: records}, nil
}

// Absorb merges records (for example live search results) into a source's
// snapshot copy-on-write. The snapshot's age is unchanged: absorbed search
// hits do not make a stale snapshot fresh.
func (c *Cache) Absorb(source Source, records []Record) {
	if len(records) == 0 {
		return
	}

	mu := c.refreshMu[source]
	mu.Lock()
	defer mu.Unlock()

	next := c.Snapshot(source).Clone()
	for _, rec := range records {
		rec.Source = source
		next.Records[rec.Name] = rec
	}
	c.snaps[source].Store(next)
}

// Get returns the merged view of one package across all sources: the
// Installed record describes current state, with the newest Official/AUR
// version filled in as AvailableVersion and Outdated computed from it.
func (c *Cache) Get(name string) (Record, bool) {
	installed, haveInstalled := c.Snapshot(Installed).Get(name)
	official, haveOfficial := c.Snapshot(Official).Get(name)
	aur, haveAUR := c.Snapshot(AUR).Get(name)

	available := ""
	if haveOfficial {
		available = official.Version
	}
	if haveAUR && (available == "" || CompareVersions(aur.Version, available) > 0) {
		available = aur.Version
	}

	if haveInstalled {
		merged := installed
		if available != "" && CompareVersions(installed.Version, available) < 0 {
			merged.AvailableVersion = available
			merged.Outdated = true
		}
		if merged.Description == "" {
			merged.Description = firstNonEmpty(official.Description, aur.Description)
		}
		if merged.Homepage == "" {
			merged.Homepage = firstNonEmpty(official.Homepage, aur.Homepage)
		}
		if haveOfficial && merged.Repository == "installed" {
			merged.Repository = official.Repository
		}
		return merged, true
	}

	if haveOfficial {
		return official, true
	}
	if haveAUR {
		return aur, true
	}
	return Record{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
