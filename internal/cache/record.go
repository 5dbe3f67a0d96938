// Package cache is the in-memory metadata store. Each source (official
// repositories, AUR, locally installed) has an immutable snapshot that is
// replaced wholesale on refresh, so readers never observe a half-built view.
package cache

import (
	"strconv"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"
)

// Source identifies where a package record came from.
type Source string

const (
	// Official is the distribution's sync repositories.
	Official Source = "official"
	// AUR is the user repository, reached through a helper.
	AUR Source = "aur"
	// Installed is the local package database.
	Installed Source = "installed"
)

// Sources lists all sources in refresh order.
var Sources = []Source{Official, AUR, Installed}

// Record is one package's metadata within a single source. Records are
// value copies; callers can never mutate cache state through one.
type Record struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Source        Source   `json:"source"`
	Repository    string   `json:"repository"`
	Description   string   `json:"description,omitempty"`
	InstalledSize string   `json:"installed_size,omitempty"`
	Dependencies  []string `json:"dependencies,omitempty"`
	Homepage      string   `json:"homepage,omitempty"`
	Installed     bool     `json:"installed"`

	// ReverseDependencies is filled lazily by the query engine; most
	// records never carry it.
	ReverseDependencies []string `json:"reverse_dependencies,omitempty"`

	// AvailableVersion is the newest version known from Official/AUR for an
	// Installed record. Empty when no newer version is known.
	AvailableVersion string `json:"available_version,omitempty"`
	Orphan           bool   `json:"orphan,omitempty"`
	Outdated         bool   `json:"outdated,omitempty"`
}

// Snapshot is an immutable point-in-time view of one source. Do not mutate
// Records after publishing; Clone first.
type Snapshot struct {
	Source  Source
	TakenAt time.Time
	Records map[string]Record
}

// emptySnapshot returns a published-safe zero snapshot for a source.
func emptySnapshot(source Source) *Snapshot {
	return &Snapshot{Source: source, Records: map[string]Record{}}
}

// Get returns a value copy of the named record.
func (s *Snapshot) Get(name string) (Record, bool) {
	rec, ok := s.Records[name]
	if ok {
		rec.Dependencies = append([]string(nil), rec.Dependencies...)
		rec.ReverseDependencies = append([]string(nil), rec.ReverseDependencies...)
	}
	return rec, ok
}

// All returns value copies of every record.
func (s *Snapshot) All() []Record {
	out := make([]Record, 0, len(s.Records))
	for name := range s.Records {
		rec, _ := s.Get(name)
		out = append(out, rec)
	}
	return out
}

// Len returns the record count.
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// Clone returns a mutable deep copy for copy-on-write updates.
func (s *Snapshot) Clone() *Snapshot {
	records := make(map[string]Record, len(s.Records))
	for name := range s.Records {
		rec, _ := s.Get(name)
		records[name] = rec
	}
	return &Snapshot{Source: s.Source, TakenAt: s.TakenAt, Records: records}
}

// CompareVersions orders two pacman version strings, handling the optional
// epoch prefix ("1:2.3-4"). It parses the remainder as a version and falls
// back to a plain string comparison for shapes go-version cannot represent.
func CompareVersions(a, b string) int {
	epochA, restA := splitEpoch(a)
	epochB, restB := splitEpoch(b)
	if epochA != epochB {
		if epochA < epochB {
			return -1
		}
		return 1
	}

	va, errA := version.NewVersion(restA)
	vb, errB := version.NewVersion(restB)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(restA, restB)
}

func splitEpoch(v string) (int, string) {
	idx := strings.Index(v, ":")
	if idx <= 0 {
		return 0, v
	}
	epoch, err := strconv.Atoi(v[:idx])
	if err != nil {
		return 0, v
	}
	return epoch, v[idx+1:]
}
