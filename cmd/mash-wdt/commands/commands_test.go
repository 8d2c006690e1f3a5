package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/config"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/metrics"
	"github.com/mash-protocol/mash-wdt/pkg/system"
)

// runApp runs mash-wdt against dir and returns stdout.
func runApp(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := append([]string{"mash-wdt", "--state-dir", dir}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Config format:  1.0")
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runApp(t, dir, "--log-level", "debug", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "state_dir: "+dir)
	assert.Contains(t, out, "level: debug")
}

func TestConfigCommandInvalid(t *testing.T) {
	_, err := runApp(t, t.TempDir(), "--log-format", "xml", "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestResetCauseCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := runApp(t, dir, "reset-cause")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cause: power-on")

	latch := system.NewLatch(filepath.Join(dir, system.DefaultLatchFile))
	require.NoError(t, latch.Set(system.Watchdog))

	out, err = runApp(t, dir, "reset-cause")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset flags: WDRF")
	assert.Contains(t, out, "Reset cause: watchdog")

	// Peek leaves the latch in place; --clear consumes it.
	out, err = runApp(t, dir, "reset-cause", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cause: watchdog")

	out, err = runApp(t, dir, "reset-cause")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cause: power-on")
}

func TestSnapshotCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := runApp(t, dir, "snapshot", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnostic snapshot: none")

	nv, err := diag.OpenFileEEPROM(filepath.Join(dir, config.DefaultEEPROMFile), config.DefaultEEPROMSize)
	require.NoError(t, err)
	store, err := diag.NewStore(nv, 0, diag.DefaultMagic)
	require.NoError(t, err)
	require.NoError(t, store.Save(diag.Snapshot{
		ResetCounter:      2,
		FreeMemoryAtFault: 512,
		FaultAddress:      0x1234,
		Timestamp:         9000,
	}))
	require.NoError(t, nv.Close())

	out, err = runApp(t, dir, "snapshot", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnostic snapshot: valid")
	assert.Contains(t, out, "Reset counter:  2")
	assert.Contains(t, out, "Fault address:  0x00001234")
	assert.Contains(t, out, "Fault uptime:   9000 ms")

	out, err = runApp(t, dir, "snapshot", "dump")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = runApp(t, dir, "snapshot", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "invalidated")

	out, err = runApp(t, dir, "snapshot", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnostic snapshot: none")
}

func TestCallCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := runApp(t, dir, "call", "--timeout", "250ms", "--work", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Call completed in")
	assert.Contains(t, out, "limit 250ms")

	out, err = runApp(t, dir, "call", "--timeout", "16ms", "--work", "300ms")
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
	assert.Contains(t, out, "Call timed out after")

	_, err = runApp(t, dir, "call", "--timeout", "3s")
	assert.ErrorIs(t, err, alarm.ErrInvalidTimeout)
}

func TestCallCommandEventTrace(t *testing.T) {
	dir := t.TempDir()

	_, err := runApp(t, dir, "--events", "trace.wlog", "call", "--timeout", "250ms", "--work", "1ms")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "trace.wlog"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// newTestEnv builds an Env on dir with a fast supervisor.
func newTestEnv(t *testing.T, dir string) *Env {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = dir
	cfg.Supervisor.Timeout = "64ms"
	cfg.Supervisor.KickInterval = 10 * time.Millisecond
	cfg.BoundedCall.DefaultTimeout = "32ms"
	require.NoError(t, config.Verify(cfg))

	env := &Env{
		Config:  cfg,
		Level:   new(slog.LevelVar),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics.NewCollector(),
	}
	t.Cleanup(func() { env.Close() })
	return env
}

func TestRunnerFaultAndRecovery(t *testing.T) {
	dir := t.TempDir()

	// First boot: the loop stalls, the supervisor saves a snapshot and
	// the second stage resets.
	env := newTestEnv(t, dir)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reset := make(chan struct{})
	var out bytes.Buffer
	r := NewRunner(env, RunOptions{
		CallEvery:  20 * time.Millisecond,
		Work:       time.Millisecond,
		StallAfter: 100 * time.Millisecond,
		Resetter: alarm.ResetterFunc(func() {
			assert.NoError(t, env.Latch().Set(system.Watchdog))
			close(reset)
			cancel()
		}),
	}, &out)

	require.NoError(t, r.Run(ctx))
	select {
	case <-reset:
	default:
		t.Fatal("run ended without a reset")
	}
	assert.Contains(t, out.String(), "Reset cause: power-on")
	require.NoError(t, env.Close())

	// Second boot: the watchdog cause and the snapshot are reported.
	env = newTestEnv(t, dir)
	out.Reset()
	r = NewRunner(env, RunOptions{
		CallEvery: 20 * time.Millisecond,
		Work:      time.Millisecond,
		Duration:  50 * time.Millisecond,
		Resetter:  alarm.ResetterFunc(func() { t.Error("unexpected reset") }),
	}, &out)

	require.NoError(t, r.Run(context.Background()))
	s := out.String()
	assert.Contains(t, s, "Reset cause: watchdog")
	assert.Contains(t, s, "Diagnostic snapshot: valid")
	assert.Contains(t, s, "Reset counter:  0")
	assert.Contains(t, s, "Consecutive watchdog resets: 1")

	// The record was invalidated at boot.
	store, err := env.SnapshotStore()
	require.NoError(t, err)
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunnerHaltsOnResetLoop(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(t, dir)
	env.Config.Diagnostics.MaxResetLoops = 1

	store, err := env.SnapshotStore()
	require.NoError(t, err)
	require.NoError(t, store.Save(diag.Snapshot{ResetCounter: 1}))
	require.NoError(t, env.Latch().Set(system.Watchdog))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err = NewRunner(env, RunOptions{CallEvery: time.Second}, &out).Run(ctx)
	assert.True(t, errors.Is(err, system.ErrHalted), "got %v", err)
	assert.Contains(t, out.String(), "Consecutive watchdog resets: 2")
}

func TestRunnerPollTimeout(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	env.Config.Supervisor.Enabled = false

	var out bytes.Buffer
	r := NewRunner(env, RunOptions{
		CallEvery: 10 * time.Millisecond,
		Work:      time.Millisecond,
		HangEvery: 2,
		Duration:  200 * time.Millisecond,
		Resetter:  alarm.ResetterFunc(func() { t.Error("unexpected reset") }),
	}, &out)

	require.NoError(t, r.Run(context.Background()))
	assert.GreaterOrEqual(t, r.exec.Workers(), int64(1))
}
