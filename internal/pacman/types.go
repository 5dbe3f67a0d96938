// Package pacman builds the fixed command lines for pacman, the AUR helper
// and pactree, and parses their line-oriented output. It never decides what
// to run, only how to ask and how to read the answers.
package pacman

import "fmt"

// SearchResult is one entry of a -Ss/-Qs style search.
type SearchResult struct {
	Repository  string
	Name        string
	Version     string
	Description string
	Installed   bool
}

// InstalledPackage is one entry of `pacman -Q`.
type InstalledPackage struct {
	Name    string
	Version string
}

// Update is one pending upgrade reported by `pacman -Qu` or `yay -Qua`.
type Update struct {
	Name       string
	OldVersion string
	NewVersion string
}

// RepoPackage is one entry of the `pacman -Sl` repository catalog.
type RepoPackage struct {
	Repository string
	Name       string
	Version    string
	Installed  bool
}

// Details carries the key/value fields of `pacman -Qi` / `-Si`.
type Details struct {
	Name          string
	Version       string
	Repository    string
	Description   string
	URL           string
	Licenses      string
	InstalledSize string
	DownloadSize  string
	Depends       []string
	RequiredBy    []string
	Installed     bool
}

// ParseError reports tool output that did not match the expected shape.
// Callers degrade to showing the raw text instead of failing the operation.
type ParseError struct {
	Tool string
	Line string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected %s output: %q", e.Tool, e.Line)
}
