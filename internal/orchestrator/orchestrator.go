// Package orchestrator coordinates mutating operations: planning through
// the resolver, credential acquisition, execution with streamed progress,
// and cache invalidation. Read-only queries never pass through here.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"pkger/internal/cache"
	"pkger/internal/credential"
	"pkger/internal/logger"
	"pkger/internal/op"
	"pkger/internal/pacman"
	"pkger/internal/resolver"
	"pkger/internal/runner"
)

// ErrOperationInProgress is returned in reject mode when a mutating request
// arrives while another one is executing. Retryable by the caller.
var ErrOperationInProgress = errors.New("another operation is already in progress")

// Planner is the slice of the resolver the orchestrator needs.
type Planner interface {
	Plan(ctx context.Context, req op.Request) (*resolver.Plan, error)
}

// Broker is the slice of the credential broker the orchestrator needs.
type Broker interface {
	Acquire(ctx context.Context, reason string) (*credential.Credential, error)
}

// Journal records finished sessions. Failures to journal are logged, never
// surfaced.
type Journal interface {
	Record(req op.Request, outcome *Outcome, duration time.Duration) error
}

// Options configure orchestrator behavior.
type Options struct {
	// AURHelper is the helper binary used for AUR targets.
	AURHelper string

	// RejectBusy rejects concurrent mutating requests instead of queueing
	// them behind the running one.
	RejectBusy bool
}

// Orchestrator owns the single mutating path over the metadata cache.
type Orchestrator struct {
	run      runner.CommandRunner
	planner  Planner
	broker   Broker
	cache    *cache.Cache
	journal  Journal
	opts     Options
	isRoot   func() bool
	onFinish func() // hook for flushing dependent read caches

	// gate serializes mutating sessions: exactly one token exists, held
	// for the whole Planning..Finalizing span of a session.
	gate chan struct{}

	lastID atomic.Uint64
}

// New creates an Orchestrator. journal may be nil; onFinish may be nil.
func New(run runner.CommandRunner, planner Planner, broker Broker, c *cache.Cache, journal Journal, opts Options) *Orchestrator {
	if opts.AURHelper == "" {
		opts.AURHelper = "yay"
	}
	o := &Orchestrator{
		run:     run,
		planner: planner,
		broker:  broker,
		cache:   c,
		journal: journal,
		opts:    opts,
		isRoot:  func() bool { return false },
		gate:    make(chan struct{}, 1),
	}
	o.gate <- struct{}{}
	return o
}

// SetOnFinish registers a hook invoked after every finished session,
// regardless of outcome. Used to flush detail memoization.
func (o *Orchestrator) SetOnFinish(fn func()) {
	o.onFinish = fn
}

// Submit validates and dispatches a mutating request, returning its live
// session. Validation failures are reported synchronously, before any
// external process is launched or any session exists.
//
// In reject mode a busy orchestrator returns ErrOperationInProgress; in
// queue mode the session waits its turn.
func (o *Orchestrator) Submit(req op.Request) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acquired := false
	if o.opts.RejectBusy {
		select {
		case <-o.gate:
			acquired = true
		default:
			return nil, ErrOperationInProgress
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := newSession(o.lastID.Add(1), req, cancel)

	go o.runSession(ctx, sess, acquired)
	return sess, nil
}

// Busy reports whether a mutating session currently holds the gate.
func (o *Orchestrator) Busy() bool {
	return len(o.gate) == 0
}

// StartMaintenance launches the background refresh worker: every interval
// it refreshes stale cache sources, skipping rounds where a mutation is
// executing so it never contends for pacman's database lock.
func (o *Orchestrator) StartMaintenance(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if o.Busy() {
					continue
				}
				o.cache.RefreshStale(ctx)
			}
		}
	}()
}

func (o *Orchestrator) runSession(ctx context.Context, sess *Session, gateHeld bool) {
	if !gateHeld {
		select {
		case <-o.gate:
		case <-ctx.Done():
			o.finish(sess, &Outcome{Status: Cancelled, Summary: "operation cancelled while queued"})
			return
		}
	}
	defer func() { o.gate <- struct{}{} }()

	req := sess.Request

	// Planning.
	sess.setState(StatePlanning)
	plan, err := o.planner.Plan(ctx, req)
	if err != nil {
		o.finish(sess, outcomeForError(req, err))
		return
	}
	for _, w := range plan.Warnings {
		sess.emitLog(w)
	}
	describePlan(sess, plan)

	if req.Kind == op.OrphanClean && len(plan.ToRemove) == 0 {
		o.finalize(sess, &Outcome{Status: Succeeded, Summary: "no orphaned packages to remove"}, nil)
		return
	}

	// Credential acquisition; released on every exit path below.
	var cred *credential.Credential
	if req.RequiresElevation() && !o.isRoot() {
		sess.setState(StateAwaitingCredential)
		cred, err = o.broker.Acquire(ctx, req.Describe())
		if err != nil {
			if errors.Is(err, credential.ErrDenied) || errors.Is(err, context.Canceled) {
				o.finish(sess, &Outcome{Status: Cancelled, Summary: "elevation declined"})
			} else {
				o.finish(sess, &Outcome{Status: Failed, Summary: "could not acquire credential", Reason: err.Error()})
			}
			return
		}
	}
	releaseCred := func() {
		if cred != nil {
			cred.Release()
		}
	}
	defer releaseCred()

	// Executing.
	sess.setState(StateExecuting)
	spec, err := o.commandFor(req, plan, cred)
	if err != nil {
		o.finalize(sess, &Outcome{Status: Failed, Summary: "could not build command", Reason: err.Error()}, releaseCred)
		return
	}
	spec.OnLine = func(stream runner.Stream, text string) {
		sess.events <- classifyLine(text)
	}

	res, err := o.run.Run(ctx, spec)

	// Finalizing: credential release, cache invalidation, journal, outcome.
	switch {
	case res.Cancelled || errors.Is(err, context.Canceled):
		o.finalize(sess, &Outcome{
			Status:     Cancelled,
			Summary:    fmt.Sprintf("%s cancelled", req.Kind),
			OutputTail: res.Tail,
		}, releaseCred)
	case err != nil:
		o.finalize(sess, outcomeForExecError(req, err, res), releaseCred)
	default:
		o.finalize(sess, &Outcome{
			Status:     Succeeded,
			Summary:    fmt.Sprintf("%s completed successfully", req.Kind),
			OutputTail: res.Tail,
		}, releaseCred)
	}
}

// finalize runs the guaranteed cleanup path: the credential is released
// first, then the touched cache sources are invalidated, then the outcome
// is journaled and delivered.
func (o *Orchestrator) finalize(sess *Session, outcome *Outcome, releaseCred func()) {
	sess.setState(StateFinalizing)
	if releaseCred != nil {
		releaseCred()
	}
	if outcome.Status == Succeeded {
		o.cache.Invalidate(sess.Request.TouchedSources()...)
	}
	o.finish(sess, outcome)
}

func (o *Orchestrator) finish(sess *Session, outcome *Outcome) {
	sess.finish(outcome)
	if o.journal != nil {
		if err := o.journal.Record(sess.Request, outcome, sess.Duration()); err != nil {
			logger.Warn("orchestrator: failed to journal session", "error", err)
		}
	}
	if o.onFinish != nil {
		o.onFinish()
	}
}

// commandFor maps a planned request onto the concrete command line,
// wrapping pacman mutations in sudo fed by the session credential.
func (o *Orchestrator) commandFor(req op.Request, plan *resolver.Plan, cred *credential.Credential) (runner.Spec, error) {
	useHelper := false
	var args []string

	switch req.Kind {
	case op.Install:
		if hasAURTarget(req) {
			useHelper = true
			args = pacman.AURInstallArgs(req.TargetNames())
		} else {
			args = pacman.InstallArgs(req.TargetNames())
		}
	case op.Reinstall:
		if hasAURTarget(req) {
			useHelper = true
			args = pacman.AURInstallArgs(req.TargetNames())
		} else {
			args = pacman.ReinstallArgs(req.TargetNames())
		}
	case op.UpdateSelected:
		if hasAURTarget(req) {
			useHelper = true
			args = pacman.AURInstallArgs(req.TargetNames())
		} else {
			args = pacman.UpdateSelectedArgs(req.TargetNames())
		}
	case op.Remove:
		args = pacman.RemoveArgs(req.TargetNames())
	case op.UpdateAll:
		args = pacman.UpdateAllArgs()
	case op.CacheClean:
		args = pacman.CacheCleanArgs()
	case op.OrphanClean:
		orphans := make([]string, 0, len(plan.ToRemove))
		for _, c := range plan.ToRemove {
			orphans = append(orphans, c.Name)
		}
		args = pacman.OrphanRemoveArgs(orphans)
	case op.InstallLocalFile:
		args = pacman.LocalInstallArgs(req.LocalPath)
	case op.SyncForce:
		args = pacman.SyncForceArgs()
	default:
		return runner.Spec{}, fmt.Errorf("cannot execute operation kind %q", req.Kind)
	}

	if useHelper {
		// AUR helpers escalate privileges themselves.
		return runner.Spec{Name: o.opts.AURHelper, Args: args}, nil
	}

	if cred == nil {
		return runner.Spec{Name: pacman.PacmanBin, Args: args}, nil
	}

	feed, err := cred.Feed()
	if err != nil {
		return runner.Spec{}, err
	}
	sudoArgs := append([]string{"-S", "-p", "", pacman.PacmanBin}, args...)
	return runner.Spec{Name: "sudo", Args: sudoArgs, Stdin: feed}, nil
}

func hasAURTarget(req op.Request) bool {
	for _, t := range req.Targets {
		if t.Source == cache.AUR {
			return true
		}
	}
	return false
}

func describePlan(sess *Session, plan *resolver.Plan) {
	if len(plan.ToInstall) > 0 {
		names := make([]string, 0, len(plan.ToInstall))
		for _, c := range plan.ToInstall {
			names = append(names, c.Name)
		}
		sess.emitLog(fmt.Sprintf("will install/upgrade: %s", strings.Join(names, " ")))
	}
	if len(plan.ToRemove) > 0 {
		names := make([]string, 0, len(plan.ToRemove))
		for _, c := range plan.ToRemove {
			names = append(names, c.Name)
		}
		sess.emitLog(fmt.Sprintf("will remove: %s", strings.Join(names, " ")))
	}
}

func outcomeForError(req op.Request, err error) *Outcome {
	var conflict *resolver.ConflictError
	if errors.As(err, &conflict) {
		return &Outcome{
			Status:     Failed,
			Summary:    fmt.Sprintf("%s aborted: %s", req.Kind, conflict.Error()),
			Reason:     conflict.Details,
			OutputTail: strings.Split(conflict.Details, "\n"),
		}
	}
	if errors.Is(err, context.Canceled) {
		return &Outcome{Status: Cancelled, Summary: fmt.Sprintf("%s cancelled", req.Kind)}
	}
	return &Outcome{
		Status:  Failed,
		Summary: fmt.Sprintf("%s failed during planning", req.Kind),
		Reason:  err.Error(),
	}
}

func outcomeForExecError(req op.Request, err error, res runner.Result) *Outcome {
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		return &Outcome{
			Status:     Failed,
			Summary:    fmt.Sprintf("%s failed with exit code %d", req.Kind, exitErr.Code),
			Reason:     err.Error(),
			OutputTail: exitErr.Tail,
		}
	}

	var launchErr *runner.LaunchError
	if errors.As(err, &launchErr) {
		return &Outcome{
			Status:  Failed,
			Summary: fmt.Sprintf("%s failed: %s is not available", req.Kind, launchErr.Name),
			Reason:  launchErr.Error(),
		}
	}

	return &Outcome{
		Status:     Failed,
		Summary:    fmt.Sprintf("%s failed", req.Kind),
		Reason:     err.Error(),
		OutputTail: res.Tail,
	}
}
