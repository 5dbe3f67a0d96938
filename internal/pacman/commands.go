package pacman

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"pkger/internal/runner"
)

// Command names of the external collaborators.
const (
	PacmanBin  = "pacman"
	TreeBin    = "pactree"
	defaultAUR = "yay"
)

// DetectAURHelper returns the first available AUR helper, preferring the
// configured one. Empty string means no helper is installed.
func DetectAURHelper(preferred string) string {
	if preferred != "" {
		if _, err := exec.LookPath(preferred); err == nil {
			return preferred
		}
	}
	for _, h := range []string{"yay", "paru", "trizen", "aurman"} {
		if _, err := exec.LookPath(h); err == nil {
			return h
		}
	}
	return ""
}

// Commands issues read-only queries against pacman, the AUR helper and
// pactree through the process runner, and builds argument vectors for the
// mutating operations the orchestrator executes.
type Commands struct {
	run       runner.CommandRunner
	aurHelper string
}

// NewCommands creates a Commands bound to the given runner and AUR helper
// binary name (empty disables AUR queries).
func NewCommands(run runner.CommandRunner, aurHelper string) *Commands {
	if aurHelper == "" {
		aurHelper = defaultAUR
	}
	return &Commands{run: run, aurHelper: aurHelper}
}

// AURHelper returns the helper binary in use.
func (c *Commands) AURHelper() string {
	return c.aurHelper
}

// collect runs a query command and returns its stdout. Exit code 1 means
// "no results" for pacman-style query tools and yields empty output; other
// non-zero codes are real failures.
func (c *Commands) collect(ctx context.Context, name string, args ...string) (string, error) {
	var sb strings.Builder
	_, err := c.run.Run(ctx, runner.Spec{
		Name: name,
		Args: args,
		OnLine: func(stream runner.Stream, text string) {
			if stream == runner.Stdout {
				sb.WriteString(text)
				sb.WriteByte('\n')
			}
		},
	})
	if err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) && exitErr.Code == 1 {
			return "", nil
		}
		return "", err
	}
	return sb.String(), nil
}

// SearchOfficial queries the official repositories with `pacman -Ss`.
func (c *Commands) SearchOfficial(ctx context.Context, term string) ([]SearchResult, error) {
	out, err := c.collect(ctx, PacmanBin, "-Ss", term)
	if err != nil {
		return nil, err
	}
	return ParseSearch(out), nil
}

// SearchAUR queries the AUR through the helper's `-Ss`.
func (c *Commands) SearchAUR(ctx context.Context, term string) ([]SearchResult, error) {
	out, err := c.collect(ctx, c.aurHelper, "-Ss", "--aur", term)
	if err != nil {
		return nil, err
	}
	return ParseSearch(out), nil
}

// SearchInstalled queries locally installed packages with `pacman -Qs`.
func (c *Commands) SearchInstalled(ctx context.Context, term string) ([]SearchResult, error) {
	out, err := c.collect(ctx, PacmanBin, "-Qs", term)
	if err != nil {
		return nil, err
	}
	return ParseLocalSearch(out), nil
}

// ListInstalled returns every installed package via `pacman -Q`.
func (c *Commands) ListInstalled(ctx context.Context) ([]InstalledPackage, error) {
	out, err := c.collect(ctx, PacmanBin, "-Q")
	if err != nil {
		return nil, err
	}
	return ParseInstalledList(out), nil
}

// ListForeign returns packages not found in sync repos (AUR and local
// builds) via `pacman -Qm`.
func (c *Commands) ListForeign(ctx context.Context) ([]InstalledPackage, error) {
	out, err := c.collect(ctx, PacmanBin, "-Qm")
	if err != nil {
		return nil, err
	}
	return ParseInstalledList(out), nil
}

// ListUpdates returns pending official updates via `pacman -Qu`.
func (c *Commands) ListUpdates(ctx context.Context) ([]Update, error) {
	out, err := c.collect(ctx, PacmanBin, "-Qu")
	if err != nil {
		return nil, err
	}
	return ParseUpdates(out), nil
}

// ListAURUpdates returns pending AUR updates via the helper's `-Qua`.
func (c *Commands) ListAURUpdates(ctx context.Context) ([]Update, error) {
	out, err := c.collect(ctx, c.aurHelper, "-Qua")
	if err != nil {
		return nil, err
	}
	return ParseUpdates(out), nil
}

// ListOrphans returns orphaned packages via `pacman -Qtdq`.
func (c *Commands) ListOrphans(ctx context.Context) ([]string, error) {
	out, err := c.collect(ctx, PacmanBin, "-Qtdq")
	if err != nil {
		return nil, err
	}
	return ParseNameList(out), nil
}

// ListRepoCatalog returns the full official catalog via `pacman -Sl`.
func (c *Commands) ListRepoCatalog(ctx context.Context) ([]RepoPackage, error) {
	out, err := c.collect(ctx, PacmanBin, "-Sl")
	if err != nil {
		return nil, err
	}
	return ParseRepoList(out), nil
}

// InfoInstalled returns `pacman -Qi` details, or nil if not installed.
func (c *Commands) InfoInstalled(ctx context.Context, name string) (*Details, error) {
	out, err := c.collect(ctx, PacmanBin, "-Qi", name)
	if err != nil || out == "" {
		return nil, err
	}
	d := ParseDetails(out)
	d.Installed = true
	return d, nil
}

// InfoOfficial returns `pacman -Si` details, or nil if unknown.
func (c *Commands) InfoOfficial(ctx context.Context, name string) (*Details, error) {
	out, err := c.collect(ctx, PacmanBin, "-Si", name)
	if err != nil || out == "" {
		return nil, err
	}
	return ParseDetails(out), nil
}

// InfoAUR returns the helper's `-Si` details, or nil if unknown.
func (c *Commands) InfoAUR(ctx context.Context, name string) (*Details, error) {
	out, err := c.collect(ctx, c.aurHelper, "-Si", "--aur", name)
	if err != nil || out == "" {
		return nil, err
	}
	return ParseDetails(out), nil
}

// DepTree returns the transitive dependency closure via `pactree -u`.
func (c *Commands) DepTree(ctx context.Context, name string) ([]string, error) {
	out, err := c.collect(ctx, TreeBin, "-u", name)
	if err != nil {
		return nil, err
	}
	return ParseTree(out), nil
}

// ReverseDepTree returns the transitive reverse-dependency closure via
// `pactree -r -u`.
func (c *Commands) ReverseDepTree(ctx context.Context, name string) ([]string, error) {
	out, err := c.collect(ctx, TreeBin, "-r", "-u", name)
	if err != nil {
		return nil, err
	}
	return ParseTree(out), nil
}

// Mutating argument vectors. The orchestrator decides elevation and
// confirmation; these only encode the documented argument sets.

// InstallArgs builds the install command for official targets.
func InstallArgs(targets []string) []string {
	return append([]string{"-S", "--noconfirm", "--needed"}, targets...)
}

// ReinstallArgs builds the reinstall command (install without --needed so
// pacman reinstalls even when up to date).
func ReinstallArgs(targets []string) []string {
	return append([]string{"-S", "--noconfirm"}, targets...)
}

// RemoveArgs builds the remove command.
func RemoveArgs(targets []string) []string {
	return append([]string{"-R", "--noconfirm"}, targets...)
}

// UpdateAllArgs builds the full system upgrade command.
func UpdateAllArgs() []string {
	return []string{"-Syu", "--noconfirm"}
}

// UpdateSelectedArgs builds a targeted upgrade command.
func UpdateSelectedArgs(targets []string) []string {
	return append([]string{"-S", "--noconfirm"}, targets...)
}

// CacheCleanArgs builds the package cache clean command.
func CacheCleanArgs() []string {
	return []string{"-Sc", "--noconfirm"}
}

// OrphanRemoveArgs builds the orphan removal command for a known orphan set.
func OrphanRemoveArgs(orphans []string) []string {
	return append([]string{"-Rns", "--noconfirm"}, orphans...)
}

// LocalInstallArgs builds the local archive install command.
func LocalInstallArgs(path string) []string {
	return []string{"-U", path, "--noconfirm"}
}

// SyncForceArgs builds the forced database refresh used to recover from a
// desynchronized package database.
func SyncForceArgs() []string {
	return []string{"-Syy"}
}

// AURInstallArgs builds the helper install command. AUR helpers escalate
// privileges themselves.
func AURInstallArgs(targets []string) []string {
	return append([]string{"-S", "--noconfirm"}, targets...)
}
