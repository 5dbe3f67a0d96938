// Package runner executes external package-manager processes with streaming
// output, one-shot stdin feeds and cooperative cancellation.
package runner

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Stream identifies which output stream a line arrived on.
type Stream int

const (
	// Stdout is the process standard output stream.
	Stdout Stream = iota
	// Stderr is the process standard error stream.
	Stderr
)

// String returns the stream name.
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// LineFunc receives each output line as it is produced, tagged with its
// stream of origin. It is never called concurrently.
type LineFunc func(stream Stream, text string)

// Spec describes one external process invocation.
type Spec struct {
	Name string
	Args []string

	// Stdin, when non-nil, is written to the process immediately after
	// launch and the input channel is closed. The payload is zeroed once
	// written so secrets do not linger in this copy.
	Stdin []byte

	// OnLine, when non-nil, receives every output line as it arrives.
	OnLine LineFunc
}

// Result reports how a process finished.
type Result struct {
	ExitCode  int
	Cancelled bool
	Tail      []string
}

// CommandRunner is the narrow interface the rest of the backend depends on,
// so tests can substitute a fake process.
type CommandRunner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// tailSize bounds the number of trailing output lines kept for diagnostics.
const tailSize = 20

// Runner launches external commands. The zero value is not usable; use New.
type Runner struct {
	grace    time.Duration
	lookPath func(string) (string, error)
}

// New creates a Runner whose cancelled processes get the given grace period
// between the terminate signal and a forced kill.
func New(grace time.Duration) *Runner {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Runner{
		grace:    grace,
		lookPath: exec.LookPath,
	}
}

// Run launches the process described by spec and blocks until it exits or
// ctx is cancelled. Output lines are delivered through spec.OnLine as they
// arrive; the full output is never buffered ahead of the first callback.
//
// On cancellation the process receives SIGTERM, then SIGKILL after the grace
// period, and the result reports Cancelled. A non-zero exit returns both the
// result and an *ExitError carrying the output tail.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	path, err := r.lookPath(spec.Name)
	if err != nil {
		return Result{}, &LaunchError{Name: spec.Name, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, spec.Args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.grace

	var stdin io.WriteCloser
	if spec.Stdin != nil {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return Result{}, &LaunchError{Name: spec.Name, Err: err}
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &LaunchError{Name: spec.Name, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, &LaunchError{Name: spec.Name, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Result{}, &LaunchError{Name: spec.Name, Err: err}
	}

	if stdin != nil {
		_, _ = stdin.Write(spec.Stdin) //nolint:errcheck
		_ = stdin.Close()              //nolint:errcheck
		for i := range spec.Stdin {
			spec.Stdin[i] = 0
		}
	}

	var (
		mu   sync.Mutex
		tail []string
		wg   sync.WaitGroup
	)

	emit := func(stream Stream, text string) {
		mu.Lock()
		tail = append(tail, text)
		if len(tail) > tailSize {
			tail = tail[1:]
		}
		onLine := spec.OnLine
		if onLine != nil {
			onLine(stream, text)
		}
		mu.Unlock()
	}

	wg.Add(2)
	go scanLines(stdout, Stdout, emit, &wg)
	go scanLines(stderr, Stderr, emit, &wg)
	wg.Wait()

	waitErr := cmd.Wait()

	mu.Lock()
	res := Result{Tail: append([]string(nil), tail...)}
	mu.Unlock()

	if ctx.Err() != nil {
		res.Cancelled = true
		res.ExitCode = cmd.ProcessState.ExitCode()
		return res, ctx.Err()
	}

	if waitErr != nil {
		code := cmd.ProcessState.ExitCode()
		if code < 0 {
			return res, &LaunchError{Name: spec.Name, Err: waitErr}
		}
		res.ExitCode = code
		return res, &ExitError{Code: code, Tail: res.Tail}
	}

	return res, nil
}

// scanLines reads one output stream line by line. The buffer is widened
// beyond bufio's default because pacman can emit very long progress lines.
func scanLines(r io.Reader, stream Stream, emit func(Stream, string), wg *sync.WaitGroup) {
	defer wg.Done()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		emit(stream, sc.Text())
	}
}
