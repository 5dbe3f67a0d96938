// Package credential holds the privilege-escalation secret for the lifetime
// of a single operation session. Secrets live only in process memory and are
// zeroed on release.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"pkger/internal/runner"
)

// ErrDenied is returned when the user declines elevation or the secret
// cannot be verified. Callers treat this as a cancellation, not a failure.
var ErrDenied = errors.New("elevation denied")

// ErrReleased is returned when a credential is used after Release.
var ErrReleased = errors.New("credential already released")

// maxAttempts bounds how often the broker re-prompts on a wrong password.
const maxAttempts = 3

// Prompter obtains the secret from the presentation layer. The returned
// buffer is owned by the broker afterwards and will be zeroed.
type Prompter interface {
	PromptSecret(ctx context.Context, prompt string) ([]byte, error)
}

// Credential wraps an elevation secret. It is handed to exactly one session
// and must be released on every exit path of that session.
type Credential struct {
	mu       sync.Mutex
	secret   []byte
	released bool
}

// NewStatic wraps an already-verified secret in a Credential.
func NewStatic(secret []byte) *Credential {
	return &Credential{secret: secret}
}

// Feed returns a fresh copy of the secret terminated by a newline, suitable
// as a one-shot stdin payload for `sudo -S`. The runner zeroes the copy
// after writing it.
func (c *Credential) Feed() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrReleased
	}
	feed := make([]byte, 0, len(c.secret)+1)
	feed = append(feed, c.secret...)
	return append(feed, '\n'), nil
}

// Release zeroes the secret. It is idempotent.
func (c *Credential) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.secret {
		c.secret[i] = 0
	}
	c.secret = nil
	c.released = true
}

// Released reports whether Release has been called.
func (c *Credential) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Broker acquires and verifies elevation credentials.
type Broker struct {
	prompter Prompter
	run      runner.CommandRunner
	isRoot   func() bool
}

// NewBroker creates a Broker that prompts through prompter and verifies
// secrets against sudo via run.
func NewBroker(prompter Prompter, run runner.CommandRunner) *Broker {
	return &Broker{
		prompter: prompter,
		run:      run,
		isRoot:   func() bool { return os.Geteuid() == 0 },
	}
}

// Acquire obtains a verified credential. When the process already runs as
// root it returns a credential with an empty secret, since no elevation is
// needed. A declined prompt or exhausted attempts yield ErrDenied.
func (b *Broker) Acquire(ctx context.Context, reason string) (*Credential, error) {
	if b.isRoot() {
		return &Credential{}, nil
	}

	prompt := fmt.Sprintf("Administrator privileges required to %s. Password", reason)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		secret, err := b.prompter.PromptSecret(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDenied, err)
		}
		if len(secret) == 0 {
			return nil, ErrDenied
		}

		cred := &Credential{secret: secret}
		ok, err := b.verify(ctx, cred)
		if err != nil {
			cred.Release()
			return nil, err
		}
		if ok {
			return cred, nil
		}
		cred.Release()
	}

	return nil, ErrDenied
}

// verify checks the secret against sudo without running anything of
// consequence. -k discards cached timestamps so the check is real.
func (b *Broker) verify(ctx context.Context, cred *Credential) (bool, error) {
	feed, err := cred.Feed()
	if err != nil {
		return false, err
	}

	_, err = b.run.Run(ctx, runner.Spec{
		Name:  "sudo",
		Args:  []string{"-S", "-k", "-p", "", "true"},
		Stdin: feed,
	})
	if err == nil {
		return true, nil
	}

	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}
