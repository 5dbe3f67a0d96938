// Package runnertest provides a scripted CommandRunner for tests, so the
// backend can be exercised without real pacman/yay/pactree binaries.
package runnertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"pkger/internal/runner"
)

// Call records one invocation.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// Response scripts the outcome for one command line.
type Response struct {
	Stdout []string
	Stderr []string
	Err    error
	Result runner.Result

	// Delay postpones completion, simulating a long-running process.
	Delay time.Duration

	// Block makes the command run until its context is cancelled, after
	// which it reports a cancelled result.
	Block bool
}

// Fake is a scripted CommandRunner. Commands are matched by their full
// command line ("name arg1 arg2 ..."); unmatched commands get Default.
type Fake struct {
	mu        sync.Mutex
	Responses map[string]Response
	Default   Response
	calls     []Call
}

// New creates an empty Fake.
func New() *Fake {
	return &Fake{Responses: map[string]Response{}}
}

// Script registers a response for a full command line.
func (f *Fake) Script(commandLine string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[commandLine] = resp
}

// ScriptOutput registers plain stdout for a full command line.
func (f *Fake) ScriptOutput(commandLine string, stdout string) {
	var lines []string
	if stdout != "" {
		lines = strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	}
	f.Script(commandLine, Response{Stdout: lines})
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CommandLines returns the recorded invocations as joined strings.
func (f *Fake) CommandLines() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return out
}

// Run implements runner.CommandRunner.
func (f *Fake) Run(ctx context.Context, spec runner.Spec) (runner.Result, error) {
	f.mu.Lock()
	var stdin []byte
	if spec.Stdin != nil {
		stdin = append([]byte(nil), spec.Stdin...)
	}
	f.calls = append(f.calls, Call{Name: spec.Name, Args: spec.Args, Stdin: stdin})
	line := strings.Join(append([]string{spec.Name}, spec.Args...), " ")
	resp, ok := f.Responses[line]
	if !ok {
		resp = f.Default
	}
	f.mu.Unlock()

	// Mirror the real runner's secret hygiene.
	for i := range spec.Stdin {
		spec.Stdin[i] = 0
	}

	if resp.Block {
		<-ctx.Done()
		return runner.Result{Cancelled: true}, ctx.Err()
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return runner.Result{Cancelled: true}, ctx.Err()
		}
	}

	if spec.OnLine != nil {
		for _, l := range resp.Stdout {
			spec.OnLine(runner.Stdout, l)
		}
		for _, l := range resp.Stderr {
			spec.OnLine(runner.Stderr, l)
		}
	}

	res := resp.Result
	res.Tail = append(append([]string(nil), resp.Stdout...), resp.Stderr...)
	if len(res.Tail) > 20 {
		res.Tail = res.Tail[len(res.Tail)-20:]
	}
	return res, resp.Err
}
