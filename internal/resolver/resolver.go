// Package resolver builds the change plan for a mutating request by asking
// pacman what a transaction would do (--print), without applying anything.
// It is a translation layer over the package manager's own resolution, not
// an independent solver.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pkger/internal/op"
	"pkger/internal/pacman"
	"pkger/internal/runner"
)

// Change is one package the transaction would install or remove.
type Change struct {
	Name    string
	Version string
}

// Plan is the structured result of a dry run.
type Plan struct {
	ToInstall []Change
	ToRemove  []Change
	Warnings  []string
}

// ConflictError reports a conflict pacman cannot auto-resolve. The
// orchestrator surfaces it verbatim instead of guessing a resolution.
type ConflictError struct {
	Details  string
	Packages []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if len(e.Packages) > 0 {
		return fmt.Sprintf("unresolvable conflict involving %s", strings.Join(e.Packages, ", "))
	}
	return "unresolvable dependency conflict"
}

// ErrDatabaseLocked is returned when pacman's database is held by another
// process. Retryable once the other package manager finishes.
var ErrDatabaseLocked = errors.New("package database is locked by another process")

// ErrTargetNotFound is returned when a requested package does not exist.
var ErrTargetNotFound = errors.New("target not found")

// Patterns matching pacman's conflict and failure reports.
var (
	unsatisfiedPattern = regexp.MustCompile(`failed to prepare transaction.*could not satisfy dependencies`)
	breaksDepPattern   = regexp.MustCompile(`:: installing (\S+) .* breaks dependency .* required by (\S+)`)
	conflictPattern    = regexp.MustCompile(`:: (\S+) and (\S+) are in conflict`)
	removalPattern     = regexp.MustCompile(`:: removing (\S+) breaks dependency .* required by (\S+)`)
	notFoundPattern    = regexp.MustCompile(`error: target not found: (\S+)`)
	dbLockedPattern    = regexp.MustCompile(`failed to init transaction.*unable to lock database`)
)

const printFormat = "--print-format"

// Resolver plans transactions through the process runner.
type Resolver struct {
	run       runner.CommandRunner
	aurHelper string
}

// New creates a Resolver. aurHelper is the AUR helper binary name.
func New(run runner.CommandRunner, aurHelper string) *Resolver {
	if aurHelper == "" {
		aurHelper = "yay"
	}
	return &Resolver{run: run, aurHelper: aurHelper}
}

// Plan computes what the request would change. It never mutates system
// state: every invocation carries --print or is a pure query.
func (r *Resolver) Plan(ctx context.Context, req op.Request) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch req.Kind {
	case op.Install, op.Reinstall, op.UpdateSelected:
		return r.planInstall(ctx, req)
	case op.Remove:
		return r.planRemove(ctx, req.TargetNames(), false)
	case op.OrphanClean:
		return r.planOrphanClean(ctx)
	case op.UpdateAll:
		return r.planUpdateAll(ctx)
	case op.InstallLocalFile:
		return r.planLocalInstall(ctx, req.LocalPath)
	case op.CacheClean, op.SyncForce:
		return &Plan{}, nil
	}
	return nil, fmt.Errorf("cannot plan operation kind %q", req.Kind)
}

func (r *Resolver) planInstall(ctx context.Context, req op.Request) (*Plan, error) {
	var official, aur []string
	for _, t := range req.Targets {
		if t.Source == "aur" {
			aur = append(aur, t.Name)
		} else {
			official = append(official, t.Name)
		}
	}

	plan := &Plan{}
	if len(official) > 0 {
		args := append([]string{"-S", "--print", printFormat, "%n %v"}, official...)
		changes, err := r.dryRun(ctx, pacman.PacmanBin, args)
		if err != nil {
			return nil, err
		}
		plan.ToInstall = append(plan.ToInstall, changes...)
	}

	if len(aur) > 0 {
		args := append([]string{"-S", "--print", printFormat, "%n %v"}, aur...)
		changes, err := r.dryRun(ctx, r.aurHelper, args)
		if err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				return nil, err
			}
			// AUR dry runs are best-effort: helpers cannot always price a
			// build without fetching it.
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("could not preview AUR transaction for %s: %v", strings.Join(aur, " "), err))
			for _, name := range aur {
				plan.ToInstall = append(plan.ToInstall, Change{Name: name})
			}
		} else {
			plan.ToInstall = append(plan.ToInstall, changes...)
		}
	}

	return plan, nil
}

func (r *Resolver) planRemove(ctx context.Context, targets []string, recursive bool) (*Plan, error) {
	flag := "-R"
	if recursive {
		flag = "-Rns"
	}
	args := append([]string{flag, "--print", printFormat, "%n %v"}, targets...)
	changes, err := r.dryRun(ctx, pacman.PacmanBin, args)
	if err != nil {
		return nil, err
	}
	return &Plan{ToRemove: changes}, nil
}

func (r *Resolver) planOrphanClean(ctx context.Context) (*Plan, error) {
	out, err := r.query(ctx, pacman.PacmanBin, "-Qtdq")
	if err != nil {
		return nil, err
	}
	orphans := pacman.ParseNameList(out)
	if len(orphans) == 0 {
		return &Plan{Warnings: []string{"no orphaned packages found"}}, nil
	}
	return r.planRemove(ctx, orphans, true)
}

func (r *Resolver) planUpdateAll(ctx context.Context) (*Plan, error) {
	plan := &Plan{}

	out, err := r.query(ctx, pacman.PacmanBin, "-Qu")
	if err != nil {
		return nil, err
	}
	for _, u := range pacman.ParseUpdates(out) {
		plan.ToInstall = append(plan.ToInstall, Change{Name: u.Name, Version: u.NewVersion})
	}

	out, err = r.query(ctx, r.aurHelper, "-Qua")
	if err != nil {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("could not list AUR updates: %v", err))
	} else {
		for _, u := range pacman.ParseUpdates(out) {
			plan.ToInstall = append(plan.ToInstall, Change{Name: u.Name, Version: u.NewVersion})
		}
	}

	return plan, nil
}

func (r *Resolver) planLocalInstall(ctx context.Context, path string) (*Plan, error) {
	changes, err := r.dryRun(ctx, pacman.PacmanBin, []string{"-U", "--print", printFormat, "%n %v", path})
	if err != nil {
		return nil, err
	}
	return &Plan{ToInstall: changes}, nil
}

// dryRun executes a --print transaction and parses the "%n %v" lines.
func (r *Resolver) dryRun(ctx context.Context, name string, args []string) ([]Change, error) {
	var (
		lines []string
		tail  []string
	)
	res, err := r.run.Run(ctx, runner.Spec{
		Name: name,
		Args: args,
		OnLine: func(stream runner.Stream, text string) {
			if stream == runner.Stdout {
				lines = append(lines, text)
			}
			tail = append(tail, text)
		},
	})
	if err != nil {
		return nil, Classify(append(tail, res.Tail...), err)
	}

	var changes []Change
	for _, line := range lines {
		fields := strings.Fields(line)
		switch len(fields) {
		case 0:
			continue
		case 1:
			changes = append(changes, Change{Name: fields[0]})
		default:
			changes = append(changes, Change{Name: fields[0], Version: fields[1]})
		}
	}
	return changes, nil
}

// query runs a read-only command and returns stdout, treating exit code 1
// as "no results".
func (r *Resolver) query(ctx context.Context, name string, args ...string) (string, error) {
	var sb strings.Builder
	_, err := r.run.Run(ctx, runner.Spec{
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

// Classify turns tool failure output into the typed errors of the planning
// stage. Unrecognized failures pass through unchanged.
func Classify(tail []string, err error) error {
	text := strings.Join(tail, "\n")

	if unsatisfiedPattern.MatchString(text) ||
		breaksDepPattern.MatchString(text) ||
		conflictPattern.MatchString(text) ||
		removalPattern.MatchString(text) {
		return &ConflictError{Details: text, Packages: affectedPackages(text)}
	}

	if m := notFoundPattern.FindStringSubmatch(text); m != nil {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, m[1])
	}

	if dbLockedPattern.MatchString(text) {
		return ErrDatabaseLocked
	}

	return err
}

func affectedPackages(text string) []string {
	seen := map[string]bool{}
	var packages []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			packages = append(packages, name)
		}
	}

	for _, m := range breaksDepPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range conflictPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range removalPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
		add(m[2])
	}
	return packages
}
