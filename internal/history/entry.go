// Package history keeps a journal of finished operation sessions in a
// BoltDB database, so the front-end can show what happened and when.
package history

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one journaled session outcome.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	// Kind is the operation kind ("install", "update-all", ...).
	Kind    string   `json:"kind"`
	Targets []string `json:"targets,omitempty"`

	// Status is the terminal outcome ("succeeded", "failed", "cancelled").
	Status string `json:"status"`

	// Reason carries the failure detail when Status is "failed".
	Reason string `json:"reason,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// NewEntry creates an entry stamped with the current time.
func NewEntry(kind string, targets []string) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Kind:      kind,
		Targets:   targets,
	}
}

func generateID() string {
	return time.Now().Format("20060102150405.000000")
}

// Succeeded reports whether the session completed successfully.
func (e *Entry) Succeeded() bool {
	return e.Status == "succeeded"
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Summary returns a one-line rendering for list output.
func (e *Entry) Summary() string {
	if len(e.Targets) == 0 {
		return fmt.Sprintf("%s %s (%s)", e.FormatTime(), e.Kind, e.Status)
	}
	return fmt.Sprintf("%s %s %s (%s)", e.FormatTime(), e.Kind, strings.Join(e.Targets, " "), e.Status)
}
