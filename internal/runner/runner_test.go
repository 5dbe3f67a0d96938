package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineCollector records callback invocations for inspection.
type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) fn(stream Stream, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, stream.String()+": "+text)
}

func (c *lineCollector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestRunStreamsStdout(t *testing.T) {
	var col lineCollector
	r := New(time.Second)

	res, err := r.Run(context.Background(), Spec{
		Name:   "sh",
		Args:   []string{"-c", "echo one; echo two"},
		OnLine: col.fn,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"stdout: one", "stdout: two"}, col.all())
}

func TestRunTagsStderr(t *testing.T) {
	var col lineCollector
	r := New(time.Second)

	_, err := r.Run(context.Background(), Spec{
		Name:   "sh",
		Args:   []string{"-c", "echo oops >&2"},
		OnLine: col.fn,
	})
	require.NoError(t, err)
	assert.Contains(t, col.all(), "stderr: oops")
}

func TestRunFeedsAndZeroesStdin(t *testing.T) {
	var col lineCollector
	r := New(time.Second)

	secret := []byte("hunter2\n")
	_, err := r.Run(context.Background(), Spec{
		Name:   "cat",
		Stdin:  secret,
		OnLine: col.fn,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout: hunter2"}, col.all())

	for i, b := range secret {
		assert.Zerof(t, b, "stdin byte %d not zeroed", i)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := New(time.Second)

	res, err := r.Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "echo doomed; exit 3"},
	})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, []string{"doomed"}, exitErr.Tail)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Cancelled)
}

func TestRunMissingExecutable(t *testing.T) {
	r := New(time.Second)

	_, err := r.Run(context.Background(), Spec{Name: "definitely-not-a-real-binary"})

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, "definitely-not-a-real-binary", launchErr.Name)
}

func TestRunCancellationIsBounded(t *testing.T) {
	r := New(500 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := r.Run(ctx, Spec{Name: "sleep", Args: []string{"30"}})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, res.Cancelled)
	assert.Less(t, elapsed, 5*time.Second, "cancelled process did not terminate within the grace bound")
}

func TestRunTailIsBounded(t *testing.T) {
	r := New(time.Second)

	res, err := r.Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "for i in $(seq 1 50); do echo line$i; done"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Tail, tailSize)
	assert.Equal(t, "line50", res.Tail[len(res.Tail)-1])
}
