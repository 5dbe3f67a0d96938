package pacman

import (
	"strings"
)

// ParseSearch parses `pacman -Ss` / `yay -Ss` output: a "repo/name version"
// header line followed by an indented description line. Lines that do not
// match the header shape are skipped, matching how the tools interleave
// notes into search output.
func ParseSearch(output string) []SearchResult {
	var results []SearchResult
	lines := strings.Split(output, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if line == "" || strings.HasPrefix(line, " ") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "/") {
			continue
		}

		repoName := strings.SplitN(fields[0], "/", 2)
		res := SearchResult{
			Repository: repoName[0],
			Name:       repoName[1],
			Version:    fields[1],
			Installed:  strings.Contains(line, "[installed"),
		}

		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], " ") {
			res.Description = strings.TrimSpace(lines[i+1])
			i++
		}

		results = append(results, res)
	}

	return results
}

// ParseLocalSearch parses `pacman -Qs` output. It has the same shape as -Ss
// except the header is "local/name version".
func ParseLocalSearch(output string) []SearchResult {
	results := ParseSearch(output)
	for i := range results {
		results[i].Installed = true
	}
	return results
}

// ParseInstalledList parses `pacman -Q` / `pacman -Qm` output: one
// "name version" pair per line.
func ParseInstalledList(output string) []InstalledPackage {
	var pkgs []InstalledPackage
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pkgs = append(pkgs, InstalledPackage{Name: fields[0], Version: fields[1]})
	}
	return pkgs
}

// ParseUpdates parses `pacman -Qu` / `yay -Qua` output:
// "name oldversion -> newversion" per line. Lines flagged [ignored] are
// dropped since pacman will not apply them.
func ParseUpdates(output string) []Update {
	var updates []Update
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "[ignored]") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "->" {
			continue
		}
		updates = append(updates, Update{
			Name:       fields[0],
			OldVersion: fields[1],
			NewVersion: fields[3],
		})
	}
	return updates
}

// ParseRepoList parses `pacman -Sl` output: "repo name version" per line,
// with "[installed]" or "[installed: version]" appended for local packages.
func ParseRepoList(output string) []RepoPackage {
	var pkgs []RepoPackage
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pkgs = append(pkgs, RepoPackage{
			Repository: fields[0],
			Name:       fields[1],
			Version:    fields[2],
			Installed:  strings.Contains(line, "[installed"),
		})
	}
	return pkgs
}

// ParseNameList parses bare name-per-line output such as `pacman -Qtdq`.
func ParseNameList(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseDetails parses `pacman -Qi` / `-Si` key/value output. Continuation
// lines (wrapped values without a colon) extend the previous field. "None"
// dependency lists become empty.
func ParseDetails(output string) *Details {
	d := &Details{}
	var lastKey string

	for _, line := range strings.Split(output, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			if lastKey != "" && strings.HasPrefix(line, " ") {
				applyDetail(d, lastKey, strings.TrimSpace(line))
			}
			continue
		}
		lastKey = key
		applyDetail(d, key, value)
	}

	return d
}

func splitKeyValue(line string) (key, value string, ok bool) {
	// -Qi aligns keys in a fixed-width column ending in " : ".
	idx := strings.Index(line, " : ")
	if idx <= 0 || strings.HasPrefix(line, " ") {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+3:]), true
}

func applyDetail(d *Details, key, value string) {
	switch strings.ToLower(key) {
	case "name":
		d.Name = value
	case "version":
		d.Version = value
	case "repository":
		d.Repository = value
	case "description":
		d.Description += value
	case "url":
		d.URL = value
	case "licenses":
		d.Licenses = value
	case "installed size":
		d.InstalledSize = value
	case "download size":
		d.DownloadSize = value
	case "depends on":
		d.Depends = append(d.Depends, splitDependencyList(value)...)
	case "required by":
		d.RequiredBy = append(d.RequiredBy, splitDependencyList(value)...)
	}
}

func splitDependencyList(value string) []string {
	if value == "None" {
		return nil
	}
	return strings.Fields(value)
}

// ParseTree parses `pactree -u` output: one package name per line, the
// queried package first. The first line is dropped so the result holds only
// the transitive closure.
func ParseTree(output string) []string {
	names := ParseNameList(output)
	if len(names) > 0 {
		names = names[1:]
	}
	return names
}

// StripVersionConstraint reduces a dependency spec like "glibc>=2.39" to the
// bare package name.
func StripVersionConstraint(dep string) string {
	for _, sep := range []string{">=", "<=", "=", ">", "<"} {
		if idx := strings.Index(dep, sep); idx > 0 {
			return dep[:idx]
		}
	}
	return dep
}
