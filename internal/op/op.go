// Package op defines the operation request model shared by the resolver and
// the orchestrator. Read-only queries never become requests; they go
// straight to the query engine.
package op

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"pkger/internal/cache"
)

// Kind enumerates the mutating operations.
type Kind string

const (
	Install          Kind = "install"
	Remove           Kind = "remove"
	Reinstall        Kind = "reinstall"
	UpdateAll        Kind = "update-all"
	UpdateSelected   Kind = "update-selected"
	CacheClean       Kind = "cache-clean"
	OrphanClean      Kind = "orphan-clean"
	InstallLocalFile Kind = "install-local-file"
	SyncForce        Kind = "sync-force"
)

// Target identifies one package a request acts on.
type Target struct {
	Name   string
	Source cache.Source
}

// Request describes one user-requested mutating operation.
type Request struct {
	Kind      Kind
	Targets   []Target
	LocalPath string // InstallLocalFile only
}

// ErrNoTargets is returned when a targeted operation names no packages.
var ErrNoTargets = errors.New("no packages specified")

// localArchiveExtensions are the archive suffixes pacman -U accepts here.
var localArchiveExtensions = []string{".pkg.tar.zst", ".pkg.tar.xz"}

// Validate checks the request before anything external is launched.
func (r Request) Validate() error {
	switch r.Kind {
	case Install, Remove, Reinstall, UpdateSelected:
		if len(r.Targets) == 0 {
			return ErrNoTargets
		}
	case InstallLocalFile:
		return validateLocalPath(r.LocalPath)
	case UpdateAll, CacheClean, OrphanClean, SyncForce:
		// No targets required.
	default:
		return fmt.Errorf("unknown operation kind %q", r.Kind)
	}
	return nil
}

func validateLocalPath(path string) error {
	if path == "" {
		return errors.New("no package file specified")
	}

	valid := false
	for _, ext := range localArchiveExtensions {
		if strings.HasSuffix(path, ext) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%s is not a package archive (expected %s)",
			path, strings.Join(localArchiveExtensions, " or "))
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("package file not accessible: %w", err)
	}
	return nil
}

// AUROnly reports whether every target comes from the AUR.
func (r Request) AUROnly() bool {
	if len(r.Targets) == 0 {
		return false
	}
	for _, t := range r.Targets {
		if t.Source != cache.AUR {
			return false
		}
	}
	return true
}

// RequiresElevation reports whether the request needs a sudo credential.
// AUR helper invocations escalate on their own.
func (r Request) RequiresElevation() bool {
	switch r.Kind {
	case Install, Reinstall, UpdateSelected:
		return !r.AUROnly()
	case Remove, UpdateAll, CacheClean, OrphanClean, InstallLocalFile, SyncForce:
		return true
	}
	return false
}

// TargetNames returns the target package names in request order.
func (r Request) TargetNames() []string {
	names := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		names = append(names, t.Name)
	}
	return names
}

// TouchedSources returns the cache sources a completed request invalidates.
func (r Request) TouchedSources() []cache.Source {
	switch r.Kind {
	case UpdateAll, SyncForce:
		return []cache.Source{cache.Official, cache.AUR, cache.Installed}
	case CacheClean:
		return nil // on-disk package cache only; metadata unaffected
	case OrphanClean, Remove:
		return []cache.Source{cache.Installed}
	case InstallLocalFile:
		return []cache.Source{cache.Installed}
	}

	touched := map[cache.Source]bool{cache.Installed: true}
	for _, t := range r.Targets {
		if t.Source == cache.AUR {
			touched[cache.AUR] = true
		} else {
			touched[cache.Official] = true
		}
	}
	out := make([]cache.Source, 0, len(touched))
	for _, src := range cache.Sources {
		if touched[src] {
			out = append(out, src)
		}
	}
	return out
}

// Describe returns a short human-readable summary for prompts and logs.
func (r Request) Describe() string {
	switch r.Kind {
	case UpdateAll:
		return "update the entire system"
	case CacheClean:
		return "clean the package cache"
	case OrphanClean:
		return "remove orphaned packages"
	case SyncForce:
		return "force-refresh the package databases"
	case InstallLocalFile:
		return fmt.Sprintf("install local package %s", r.LocalPath)
	}
	return fmt.Sprintf("%s %s", r.Kind, strings.Join(r.TargetNames(), " "))
}
