package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pkger/internal/history"
	"pkger/internal/op"
	"pkger/internal/orchestrator"
	"pkger/internal/ui"
)

// journalAdapter bridges the orchestrator's journaling hook onto the
// history store.
type journalAdapter struct {
	store *history.Store
}

func (a journalAdapter) Record(req op.Request, outcome *orchestrator.Outcome, d time.Duration) error {
	entry := history.NewEntry(string(req.Kind), req.TargetNames())
	entry.Status = string(outcome.Status)
	entry.Reason = outcome.Reason
	entry.DurationMs = d.Milliseconds()
	return a.store.Append(entry)
}

// runOperation submits a mutating request and renders its event stream
// until the terminal outcome. Ctrl-C cancels the session instead of killing
// the process outright, so the running tool gets its termination grace.
func runOperation(req op.Request) error {
	if !yes {
		confirmed, err := ui.Confirm(fmt.Sprintf("About to %s. Proceed?", req.Describe()), true)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	sess, err := orch.Submit(req)
	if err != nil {
		if errors.Is(err, orchestrator.ErrOperationInProgress) {
			return fmt.Errorf("%w: retry once it finishes", err)
		}
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			ui.WarningMsg("Cancelling...")
			sess.Cancel()
		}
	}()

	sp := ui.NewSpinner(req.Describe())
	sp.Start()

	var outcome *orchestrator.Outcome
	for ev := range sess.Events() {
		switch ev.Type {
		case orchestrator.EventState:
			if !ev.State.Terminal() {
				sp.UpdateMessage(stateLabel(ev.State, req))
			}
		case orchestrator.EventProgress:
			sp.UpdateMessage(fmt.Sprintf("%3d%% %s", ev.Percent, ev.Message))
		case orchestrator.EventLog:
			if verbose {
				sp.Stop()
				ui.MutedMsg("  %s", ev.Message)
				sp.Start()
			}
		case orchestrator.EventOutcome:
			outcome = ev.Outcome
		}
	}
	sp.Stop()

	return renderOutcome(outcome)
}

func stateLabel(state orchestrator.State, req op.Request) string {
	switch state {
	case orchestrator.StatePlanning:
		return "Resolving transaction..."
	case orchestrator.StateAwaitingCredential:
		return "Waiting for authentication..."
	case orchestrator.StateExecuting:
		return req.Describe()
	case orchestrator.StateFinalizing:
		return "Finishing up..."
	}
	return string(state)
}

func renderOutcome(outcome *orchestrator.Outcome) error {
	if outcome == nil {
		return fmt.Errorf("session ended without an outcome")
	}

	switch outcome.Status {
	case orchestrator.Succeeded:
		ui.SuccessMsg("%s", outcome.Summary)
		return nil
	case orchestrator.Cancelled:
		ui.WarningMsg("%s", outcome.Summary)
		return nil
	default:
		ui.ErrorMsg("%s", outcome.Summary)
		if outcome.Reason != "" && outcome.Reason != outcome.Summary {
			ui.MutedMsg("%s", outcome.Reason)
		}
		for _, line := range outcome.OutputTail {
			ui.MutedMsg("  %s", line)
		}
		return ErrOperationFailed
	}
}
