package system

import (
	"log/slog"
	"os"
	"syscall"
)

// Replaced in tests.
var (
	execFn = syscall.Exec
	exitFn = os.Exit
)

// ProcessReset resets the system by restarting the process. The reset
// cause is latched first so the next boot can tell why it happened.
type ProcessReset struct {
	// Latch records the reset cause. Required.
	Latch *Latch

	// Flags are latched before restarting, normally Watchdog.
	Flags ResetFlags

	// Exec replaces the process image with a fresh copy of the running
	// executable. When false, or when exec fails, the process exits with
	// status 1 and an outer service manager is expected to restart it.
	Exec bool

	// BeforeReset runs after the latch is set, for flushing traces. May be nil.
	BeforeReset func()

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// SystemReset latches the cause and restarts. It does not return.
func (r *ProcessReset) SystemReset() {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := r.Latch.Set(r.Flags); err != nil {
		logger.Error("failed to latch reset cause", "flags", r.Flags.String(), "error", err)
	}
	if r.BeforeReset != nil {
		r.BeforeReset()
	}

	if r.Exec {
		exe, err := os.Executable()
		if err == nil {
			logger.Warn("system reset, restarting", "flags", r.Flags.String(), "exe", exe)
			err = execFn(exe, os.Args, os.Environ())
		}
		logger.Error("restart failed", "error", err)
	} else {
		logger.Warn("system reset, exiting", "flags", r.Flags.String())
	}
	exitFn(1)
}
