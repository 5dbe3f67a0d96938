package runner

import (
	"fmt"
	"strings"
)

// LaunchError is returned when the executable cannot be found or started.
// It is fatal to the operation that requested it.
type LaunchError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError is returned when the process ran but exited non-zero. It carries
// the tail of the combined output for diagnosis. Whether a non-zero exit is
// an actual failure is for the caller to decide: pacman-style query tools use
// exit code 1 to mean "no results".
type ExitError struct {
	Code int
	Tail []string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("process exited with code %d", e.Code)
	}
	return fmt.Sprintf("process exited with code %d: %s", e.Code, strings.Join(e.Tail, " | "))
}

// TailText returns the captured output tail as a single block.
func (e *ExitError) TailText() string {
	return strings.Join(e.Tail, "\n")
}
