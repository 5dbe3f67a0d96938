package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkger/internal/cache"
	"pkger/internal/op"
	"pkger/internal/runner"
	"pkger/internal/runner/runnertest"
)

func newTestResolver() (*Resolver, *runnertest.Fake) {
	fake := runnertest.New()
	return New(fake, "yay"), fake
}

func TestPlanInstall(t *testing.T) {
	r, fake := newTestResolver()
	fake.ScriptOutput("pacman -S --print --print-format %n %v firefox",
		"nss 3.101-1\nfirefox 128.0-1\n")

	plan, err := r.Plan(context.Background(), op.Request{
		Kind:    op.Install,
		Targets: []op.Target{{Name: "firefox", Source: cache.Official}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Name: "nss", Version: "3.101-1"}, {Name: "firefox", Version: "128.0-1"}}, plan.ToInstall)
	assert.Empty(t, plan.ToRemove)
}

func TestPlanInstallConflict(t *testing.T) {
	r, fake := newTestResolver()
	fake.Script("pacman -S --print --print-format %n %v pipewire-jack", runnertest.Response{
		Stderr: []string{
			":: pipewire-jack and jack2 are in conflict",
			"error: failed to prepare transaction (could not satisfy dependencies)",
		},
		Err:    &runner.ExitError{Code: 1, Tail: []string{"error: failed to prepare transaction (could not satisfy dependencies)"}},
		Result: runner.Result{ExitCode: 1},
	})

	_, err := r.Plan(context.Background(), op.Request{
		Kind:    op.Install,
		Targets: []op.Target{{Name: "pipewire-jack", Source: cache.Official}},
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Packages, "pipewire-jack")
	assert.Contains(t, conflict.Packages, "jack2")
	assert.Contains(t, conflict.Details, "are in conflict")
}

func TestPlanInstallTargetNotFound(t *testing.T) {
	r, fake := newTestResolver()
	fake.Script("pacman -S --print --print-format %n %v nosuchpkg", runnertest.Response{
		Stderr: []string{"error: target not found: nosuchpkg"},
		Err:    &runner.ExitError{Code: 1},
		Result: runner.Result{ExitCode: 1},
	})

	_, err := r.Plan(context.Background(), op.Request{
		Kind:    op.Install,
		Targets: []op.Target{{Name: "nosuchpkg", Source: cache.Official}},
	})
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestPlanDatabaseLocked(t *testing.T) {
	r, fake := newTestResolver()
	fake.Script("pacman -S --print --print-format %n %v vim", runnertest.Response{
		Stderr: []string{"error: failed to init transaction (unable to lock database)"},
		Err:    &runner.ExitError{Code: 1},
		Result: runner.Result{ExitCode: 1},
	})

	_, err := r.Plan(context.Background(), op.Request{
		Kind:    op.Install,
		Targets: []op.Target{{Name: "vim", Source: cache.Official}},
	})
	assert.ErrorIs(t, err, ErrDatabaseLocked)
}

func TestPlanRemoveBreakage(t *testing.T) {
	r, fake := newTestResolver()
	fake.Script("pacman -R --print --print-format %n %v glibc", runnertest.Response{
		Stderr: []string{":: removing glibc breaks dependency 'glibc' required by bash"},
		Err:    &runner.ExitError{Code: 1},
		Result: runner.Result{ExitCode: 1},
	})

	_, err := r.Plan(context.Background(), op.Request{
		Kind:    op.Remove,
		Targets: []op.Target{{Name: "glibc", Source: cache.Installed}},
	})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Packages, "glibc")
	assert.Contains(t, conflict.Packages, "bash")
}

func TestPlanOrphanClean(t *testing.T) {
	r, fake := newTestResolver()
	fake.ScriptOutput("pacman -Qtdq", "gtk2\nlibdvdcss\n")
	fake.ScriptOutput("pacman -Rns --print --print-format %n %v gtk2 libdvdcss",
		"gtk2 2.24-1\nlibdvdcss 1.4.3-1\n")

	plan, err := r.Plan(context.Background(), op.Request{Kind: op.OrphanClean})
	require.NoError(t, err)
	assert.Len(t, plan.ToRemove, 2)
}

func TestPlanOrphanCleanNothingToDo(t *testing.T) {
	r, fake := newTestResolver()
	fake.Script("pacman -Qtdq", runnertest.Response{
		Err:    &runner.ExitError{Code: 1},
		Result: runner.Result{ExitCode: 1},
	})

	plan, err := r.Plan(context.Background(), op.Request{Kind: op.OrphanClean})
	require.NoError(t, err)
	assert.Empty(t, plan.ToRemove)
	assert.NotEmpty(t, plan.Warnings)
}

func TestPlanUpdateAll(t *testing.T) {
	r, fake := newTestResolver()
	fake.ScriptOutput("pacman -Qu", "firefox 127.0-1 -> 128.0-1\n")
	fake.ScriptOutput("yay -Qua", "spotify 1.2.31-1 -> 1.2.33-1\n")

	plan, err := r.Plan(context.Background(), op.Request{Kind: op.UpdateAll})
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Name: "firefox", Version: "128.0-1"},
		{Name: "spotify", Version: "1.2.33-1"},
	}, plan.ToInstall)
}

func TestPlanUpdateAllToleratesMissingHelper(t *testing.T) {
	r, fake := newTestResolver()
	fake.ScriptOutput("pacman -Qu", "firefox 127.0-1 -> 128.0-1\n")
	fake.Script("yay -Qua", runnertest.Response{Err: &runner.LaunchError{Name: "yay", Err: errors.New("not found")}})

	plan, err := r.Plan(context.Background(), op.Request{Kind: op.UpdateAll})
	require.NoError(t, err)
	assert.Len(t, plan.ToInstall, 1)
	assert.NotEmpty(t, plan.Warnings)
}

func TestPlanLocalInstall(t *testing.T) {
	r, fake := newTestResolver()
	path := filepath.Join(t.TempDir(), "tool-1.0-1-x86_64.pkg.tar.zst")
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	fake.ScriptOutput("pacman -U --print --print-format %n %v "+path, "tool 1.0-1\n")

	plan, err := r.Plan(context.Background(), op.Request{Kind: op.InstallLocalFile, LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Name: "tool", Version: "1.0-1"}}, plan.ToInstall)
}

func TestPlanLocalInstallValidatesBeforeLaunching(t *testing.T) {
	r, fake := newTestResolver()

	_, err := r.Plan(context.Background(), op.Request{Kind: op.InstallLocalFile, LocalPath: "/nonexistent/pkg.pkg.tar.zst"})
	require.Error(t, err)
	assert.Empty(t, fake.Calls(), "validation failure must not launch a process")

	_, err = r.Plan(context.Background(), op.Request{Kind: op.InstallLocalFile, LocalPath: "/etc/hostname"})
	require.Error(t, err)
	assert.Empty(t, fake.Calls())
}

func TestPlanAURInstallDegradesToWarning(t *testing.T) {
	r, fake := newTestResolver()
	fake.Script("yay -S --print --print-format %n %v somepkg-git", runnertest.Response{
		Err:    &runner.ExitError{Code: 4},
		Result: runner.Result{ExitCode: 4},
	})

	plan, err := r.Plan(context.Background(), op.Request{
		Kind:    op.Install,
		Targets: []op.Target{{Name: "somepkg-git", Source: cache.AUR}},
	})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Name: "somepkg-git"}}, plan.ToInstall)
	assert.NotEmpty(t, plan.Warnings)
}

func TestPlanCacheCleanIsEmpty(t *testing.T) {
	r, fake := newTestResolver()
	plan, err := r.Plan(context.Background(), op.Request{Kind: op.CacheClean})
	require.NoError(t, err)
	assert.Empty(t, plan.ToInstall)
	assert.Empty(t, plan.ToRemove)
	assert.Empty(t, fake.Calls())
}
