package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkger/internal/runner"
)

type stubPrompter struct {
	secrets [][]byte
	err     error
	calls   int
}

func (p *stubPrompter) PromptSecret(_ context.Context, _ string) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	s := p.secrets[0]
	if len(p.secrets) > 1 {
		p.secrets = p.secrets[1:]
	}
	return append([]byte(nil), s...), nil
}

// stubRunner scripts verification outcomes per call.
type stubRunner struct {
	errs  []error
	specs []runner.Spec
}

func (r *stubRunner) Run(_ context.Context, spec runner.Spec) (runner.Result, error) {
	r.specs = append(r.specs, spec)
	if len(r.errs) == 0 {
		return runner.Result{}, nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	if err != nil {
		return runner.Result{ExitCode: 1}, err
	}
	return runner.Result{}, nil
}

func newTestBroker(p Prompter, r runner.CommandRunner) *Broker {
	b := NewBroker(p, r)
	b.isRoot = func() bool { return false }
	return b
}

func TestAcquireVerifiesAgainstSudo(t *testing.T) {
	run := &stubRunner{}
	b := newTestBroker(&stubPrompter{secrets: [][]byte{[]byte("s3cret")}}, run)

	cred, err := b.Acquire(context.Background(), "install packages")
	require.NoError(t, err)
	defer cred.Release()

	require.Len(t, run.specs, 1)
	assert.Equal(t, "sudo", run.specs[0].Name)
	assert.Equal(t, []string{"-S", "-k", "-p", "", "true"}, run.specs[0].Args)
}

func TestAcquireRetriesWrongPassword(t *testing.T) {
	run := &stubRunner{errs: []error{&runner.ExitError{Code: 1}, nil}}
	p := &stubPrompter{secrets: [][]byte{[]byte("wrong"), []byte("right")}}
	b := newTestBroker(p, run)

	cred, err := b.Acquire(context.Background(), "install packages")
	require.NoError(t, err)
	defer cred.Release()

	assert.Equal(t, 2, p.calls)
}

func TestAcquireDeniedAfterExhaustedAttempts(t *testing.T) {
	run := &stubRunner{errs: []error{
		&runner.ExitError{Code: 1},
		&runner.ExitError{Code: 1},
		&runner.ExitError{Code: 1},
	}}
	b := newTestBroker(&stubPrompter{secrets: [][]byte{[]byte("nope")}}, run)

	_, err := b.Acquire(context.Background(), "install packages")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestAcquireDeniedOnPromptAbort(t *testing.T) {
	b := newTestBroker(&stubPrompter{err: errors.New("^C")}, &stubRunner{})

	_, err := b.Acquire(context.Background(), "remove packages")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestAcquireAsRootNeedsNoPrompt(t *testing.T) {
	p := &stubPrompter{}
	b := NewBroker(p, &stubRunner{})
	b.isRoot = func() bool { return true }

	cred, err := b.Acquire(context.Background(), "update system")
	require.NoError(t, err)
	assert.Equal(t, 0, p.calls)
	cred.Release()
}

func TestReleaseZeroesSecret(t *testing.T) {
	secret := []byte("topsecret")
	cred := &Credential{secret: secret}

	feed, err := cred.Feed()
	require.NoError(t, err)
	assert.Equal(t, "topsecret\n", string(feed))

	cred.Release()

	for i, b := range secret {
		assert.Zerof(t, b, "secret byte %d survived release", i)
	}
	assert.True(t, cred.Released())

	_, err = cred.Feed()
	assert.ErrorIs(t, err, ErrReleased)
}

func TestReleaseIsIdempotent(t *testing.T) {
	cred := &Credential{secret: []byte("x")}
	cred.Release()
	cred.Release()
	assert.True(t, cred.Released())
}
