package orchestrator

import (
	"context"
	"sync"
	"time"

	"pkger/internal/op"
)

// State is the lifecycle position of a session.
type State string

const (
	StateIdle               State = "idle"
	StatePlanning           State = "planning"
	StateAwaitingCredential State = "awaiting-credential"
	StateExecuting          State = "executing"
	StateFinalizing         State = "finalizing"
	StateSucceeded          State = "succeeded"
	StateFailed             State = "failed"
	StateCancelled          State = "cancelled"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Status is the terminal outcome classification.
type Status string

const (
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

// Outcome is the terminal result of a session: a human-readable summary
// plus the raw output tail for support and debugging.
type Outcome struct {
	Status     Status
	Summary    string
	Reason     string
	OutputTail []string
}

// EventType discriminates session events.
type EventType int

const (
	// EventState reports a state transition.
	EventState EventType = iota
	// EventProgress reports classified progress with an optional percent.
	EventProgress
	// EventLog reports a raw tool output line.
	EventLog
	// EventOutcome is the final event before the stream closes.
	EventOutcome
)

// Event is one entry of a session's ordered event stream.
type Event struct {
	Type    EventType
	State   State
	Message string

	// Percent is 0-100, or -1 when the progress stage has no measurable
	// completion ratio.
	Percent int

	Outcome *Outcome
}

// Session is one in-flight operation. Events are delivered in the order
// produced; the stream closes after the outcome event.
type Session struct {
	ID      uint64
	Request op.Request

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	outcome   *Outcome
	startedAt time.Time
	endedAt   time.Time
}

func newSession(id uint64, req op.Request, cancel context.CancelFunc) *Session {
	return &Session{
		ID:        id,
		Request:   req,
		events:    make(chan Event, 1024),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateIdle,
		startedAt: time.Now(),
	}
}

// Events returns the session's ordered event stream.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the terminal outcome, or nil while running.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Duration returns how long the session ran, or has been running.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.endedAt.Sub(s.startedAt)
}

// Cancel requests cooperative cancellation. Safe to call at any time.
func (s *Session) Cancel() {
	s.cancel()
}

// Wait blocks until the session reaches a terminal outcome or ctx expires.
func (s *Session) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-s.done:
		return s.Outcome(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.events <- Event{Type: EventState, State: state, Percent: -1}
}

func (s *Session) emitLog(message string) {
	s.events <- Event{Type: EventLog, Message: message, Percent: -1}
}

func (s *Session) emitProgress(percent int, message string) {
	s.events <- Event{Type: EventProgress, Percent: percent, Message: message}
}

// finish records the outcome, emits the final events and closes the stream.
func (s *Session) finish(outcome *Outcome) {
	s.mu.Lock()
	s.outcome = outcome
	s.endedAt = time.Now()
	var state State
	switch outcome.Status {
	case Succeeded:
		state = StateSucceeded
	case Cancelled:
		state = StateCancelled
	default:
		state = StateFailed
	}
	s.state = state
	s.mu.Unlock()

	s.events <- Event{Type: EventState, State: state, Percent: -1}
	s.events <- Event{Type: EventOutcome, State: state, Percent: -1, Outcome: outcome, Message: outcome.Summary}
	close(s.events)
	close(s.done)
}
