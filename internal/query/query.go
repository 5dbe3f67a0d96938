// Package query serves searches, listings and package detail views over the
// merged metadata cache. Everything here is read-only; filtering and sorting
// are pure functions over snapshot copies, cheap enough to re-run on every
// keystroke of a live search.
package query

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"pkger/internal/cache"
	"pkger/internal/logger"
	"pkger/internal/pacman"
)

// Filters narrows search and listing results.
type Filters struct {
	Repository    string
	InstalledOnly bool
	OrphansOnly   bool
	OutdatedOnly  bool
}

// SortKey selects the ordering of result slices.
type SortKey string

const (
	// SortByName orders by package name.
	SortByName SortKey = "name"
	// SortByRepository orders by repository, then name.
	SortByRepository SortKey = "repository"
)

// detailTTL bounds how long a memoized detail view is served.
const detailTTL = time.Minute

// detailCap bounds the detail memo; the oldest half is culled beyond it.
const detailCap = 200

// Detail is the full detail view of one package.
type Detail struct {
	cache.Record
	Licenses     string
	DownloadSize string
}

type memoEntry struct {
	detail Detail
	at     time.Time
}

// Engine answers read-only queries. It is safe for concurrent use.
type Engine struct {
	cmds  *pacman.Commands
	cache *cache.Cache

	mu      sync.Mutex
	details map[string]memoEntry
}

// New creates an Engine over the given command layer and cache.
func New(cmds *pacman.Commands, c *cache.Cache) *Engine {
	return &Engine{
		cmds:    cmds,
		cache:   c,
		details: map[string]memoEntry{},
	}
}

// Search queries the requested sources live, annotates results with
// installed state from the cache, absorbs them into the per-source
// snapshots and returns the merged, filtered result set sorted by name.
func (e *Engine) Search(ctx context.Context, term string, sources []cache.Source, f Filters) ([]cache.Record, error) {
	if len(sources) == 0 {
		sources = []cache.Source{cache.Official}
	}

	installedSnap := e.cache.Snapshot(cache.Installed)

	var merged []cache.Record
	seen := map[string]bool{}

	for _, src := range sources {
		records, err := e.searchSource(ctx, term, src, installedSnap)
		if err != nil {
			return nil, err
		}
		e.cache.Absorb(src, records)
		for _, rec := range records {
			key := rec.Name + "/" + string(rec.Source)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, rec)
		}
	}

	merged = Filter(merged, f)
	SortRecords(merged, SortByName)
	return merged, nil
}

func (e *Engine) searchSource(ctx context.Context, term string, src cache.Source, installed *cache.Snapshot) ([]cache.Record, error) {
	var (
		results []pacman.SearchResult
		err     error
	)
	switch src {
	case cache.Official:
		results, err = e.cmds.SearchOfficial(ctx, term)
	case cache.AUR:
		results, err = e.cmds.SearchAUR(ctx, term)
	case cache.Installed:
		results, err = e.cmds.SearchInstalled(ctx, term)
	}
	if err != nil {
		return nil, err
	}

	records := make([]cache.Record, 0, len(results))
	for _, r := range results {
		rec := cache.Record{
			Name:        r.Name,
			Version:     r.Version,
			Source:      src,
			Repository:  r.Repository,
			Description: r.Description,
			Installed:   r.Installed,
		}
		if _, ok := installed.Get(r.Name); ok {
			rec.Installed = true
		}
		records = append(records, rec)
	}
	return records, nil
}

// List returns the merged view of every cached record across the requested
// sources, filtered and sorted.
func (e *Engine) List(sources []cache.Source, f Filters, key SortKey) []cache.Record {
	if len(sources) == 0 {
		sources = cache.Sources
	}

	var out []cache.Record
	seen := map[string]bool{}
	for _, src := range sources {
		for _, rec := range e.cache.Snapshot(src).All() {
			if seen[rec.Name] {
				continue
			}
			seen[rec.Name] = true
			if merged, ok := e.cache.Get(rec.Name); ok {
				out = append(out, merged)
			}
		}
	}

	out = Filter(out, f)
	SortRecords(out, key)
	return out
}

// Details builds the full detail view of one package: pacman/yay info plus
// the transitive dependency and reverse-dependency closures from pactree.
// Results are memoized briefly since detail views are re-requested on every
// selection change.
func (e *Engine) Details(ctx context.Context, name string) (Detail, error) {
	e.mu.Lock()
	if entry, ok := e.details[name]; ok && time.Since(entry.at) < detailTTL {
		e.mu.Unlock()
		return entry.detail, nil
	}
	e.mu.Unlock()

	info, source, err := e.lookupInfo(ctx, name)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{
		Record: cache.Record{
			Name:          info.Name,
			Version:       info.Version,
			Source:        source,
			Repository:    info.Repository,
			Description:   info.Description,
			InstalledSize: info.InstalledSize,
			Dependencies:  info.Depends,
			Homepage:      info.URL,
			Installed:     info.Installed,
		},
		Licenses:     info.Licenses,
		DownloadSize: info.DownloadSize,
	}
	if detail.Repository == "" {
		if merged, ok := e.cache.Get(name); ok {
			detail.Repository = merged.Repository
		}
	}
	if merged, ok := e.cache.Get(name); ok {
		detail.Orphan = merged.Orphan
		detail.Outdated = merged.Outdated
		detail.AvailableVersion = merged.AvailableVersion
	}

	// pactree only knows installed packages; for remote ones the info
	// fields already carry the direct dependencies.
	if info.Installed {
		if deps, err := e.cmds.DepTree(ctx, name); err == nil && len(deps) > 0 {
			detail.Dependencies = deps
		} else if err != nil {
			logger.Debug("query: pactree failed, using direct dependencies", "package", name, "error", err)
		}
		if rdeps, err := e.cmds.ReverseDepTree(ctx, name); err == nil {
			detail.ReverseDependencies = rdeps
		} else {
			detail.ReverseDependencies = ReverseDependencies(e.cache.Snapshot(cache.Installed), name)
		}
	} else {
		detail.ReverseDependencies = info.RequiredBy
	}

	e.memoize(name, detail)
	return detail, nil
}

func (e *Engine) lookupInfo(ctx context.Context, name string) (*pacman.Details, cache.Source, error) {
	if info, err := e.cmds.InfoInstalled(ctx, name); err != nil {
		return nil, "", err
	} else if info != nil {
		return info, cache.Installed, nil
	}

	if info, err := e.cmds.InfoOfficial(ctx, name); err != nil {
		return nil, "", err
	} else if info != nil {
		return info, cache.Official, nil
	}

	info, err := e.cmds.InfoAUR(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if info != nil {
		info.Repository = "aur"
		return info, cache.AUR, nil
	}

	return nil, "", &pacman.ParseError{Tool: "pacman", Line: "no information for " + name}
}

func (e *Engine) memoize(name string, detail Detail) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.details[name] = memoEntry{detail: detail, at: time.Now()}
	if len(e.details) <= detailCap {
		return
	}

	// Cull the oldest half.
	type aged struct {
		name string
		at   time.Time
	}
	entries := make([]aged, 0, len(e.details))
	for n, entry := range e.details {
		entries = append(entries, aged{n, entry.at})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
	for _, entry := range entries[:len(entries)/2] {
		delete(e.details, entry.name)
	}
}

// Flush drops all memoized detail views. Called after mutating operations
// so stale install state is not served.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.details = map[string]memoEntry{}
}

// ReverseDependencies scans a snapshot's forward dependency lists for
// references to name. O(records x avg deps) over an in-memory snapshot,
// bounded by the system package count.
func ReverseDependencies(snap *cache.Snapshot, name string) []string {
	var out []string
	for _, rec := range snap.Records {
		for _, dep := range rec.Dependencies {
			if pacman.StripVersionConstraint(dep) == name {
				out = append(out, rec.Name)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}

// Filter returns the records matching f. Pure: the input is not modified.
func Filter(records []cache.Record, f Filters) []cache.Record {
	out := make([]cache.Record, 0, len(records))
	for _, rec := range records {
		if f.Repository != "" && rec.Repository != f.Repository {
			continue
		}
		if f.InstalledOnly && !rec.Installed {
			continue
		}
		if f.OrphansOnly && !rec.Orphan {
			continue
		}
		if f.OutdatedOnly && !rec.Outdated {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// SortRecords orders records in place by the given key, with name as the
// tie-breaker.
func SortRecords(records []cache.Record, key SortKey) {
	slices.SortStableFunc(records, func(a, b cache.Record) int {
		if key == SortByRepository {
			if c := strings.Compare(a.Repository, b.Repository); c != 0 {
				return c
			}
		}
		return strings.Compare(a.Name, b.Name)
	})
}
