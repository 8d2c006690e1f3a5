package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/log"
	"github.com/mash-protocol/mash-wdt/pkg/system"
)

// ErrResetLoop reports more consecutive watchdog resets than tolerated.
var ErrResetLoop = errors.New("watchdog reset loop")

// FlagSource yields the reset-status register and clears it.
type FlagSource interface {
	Capture() (system.ResetFlags, error)
}

// SnapshotStore holds the diagnostic snapshot across resets.
type SnapshotStore interface {
	Load() (diag.Snapshot, bool, error)
	Invalidate() error
}

// Config holds recovery configuration.
type Config struct {
	// MaxResetLoops is the number of consecutive watchdog resets tolerated.
	// Zero disables loop detection.
	MaxResetLoops uint8

	// Logger is the operational logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Events receives the boot event. Defaults to log.NoopLogger.
	Events log.Logger
}

// Report is the outcome of boot-time recovery.
type Report struct {
	// Flags is the captured reset-status register.
	Flags system.ResetFlags

	// Cause is the decoded reset cause.
	Cause system.ResetCause

	// Snapshot is the recovered snapshot. Only meaningful if SnapshotValid.
	Snapshot diag.Snapshot

	// SnapshotValid is true after a watchdog reset with an intact record.
	SnapshotValid bool

	// ResetCount is the number of consecutive watchdog resets including
	// this one. Pass it to the next snapshot.
	ResetCount uint8

	// ResetLoop is true when ResetCount exceeds MaxResetLoops.
	ResetLoop bool
}

// Recover captures the reset cause and recovers the diagnostic snapshot.
// The stored record is invalidated on every boot. A reset loop is reported
// in the Report, not as an error; use Err to turn it into one.
func Recover(flags FlagSource, store SnapshotStore, cfg Config) (Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var report Report
	f, err := flags.Capture()
	if err != nil {
		return report, fmt.Errorf("capture reset flags: %w", err)
	}
	report.Flags = f
	report.Cause = f.Cause()

	if f.IsWatchdog() {
		snap, ok, err := store.Load()
		if err != nil {
			return report, fmt.Errorf("load snapshot: %w", err)
		}
		report.Snapshot = snap
		report.SnapshotValid = ok
		report.ResetCount = 1
		if ok {
			report.ResetCount = saturatingInc(snap.ResetCounter)
		}
	}

	if err := store.Invalidate(); err != nil {
		return report, fmt.Errorf("invalidate snapshot: %w", err)
	}

	report.ResetLoop = cfg.MaxResetLoops > 0 && report.ResetCount > cfg.MaxResetLoops

	attrs := []any{
		"flags", f.String(),
		"cause", report.Cause.String(),
		"snapshot_valid", report.SnapshotValid,
		"reset_count", report.ResetCount,
	}
	if report.SnapshotValid {
		attrs = append(attrs,
			"fault_address", log.FormatAddress(uint64(report.Snapshot.FaultAddress)),
			"free_memory_at_fault", report.Snapshot.FreeMemoryAtFault,
			"fault_uptime_ms", report.Snapshot.Timestamp)
	}
	if f.IsWatchdog() {
		logger.Warn("recovered from watchdog reset", attrs...)
	} else {
		logger.Info("boot", attrs...)
	}

	ev := log.NewEvent(log.ComponentRecovery, log.CategoryBoot, "")
	ev.Boot = &log.BootEvent{
		ResetFlags:    uint8(f),
		Cause:         report.Cause.String(),
		SnapshotValid: report.SnapshotValid,
		ResetCount:    report.ResetCount,
	}
	if report.SnapshotValid {
		ev.Boot.FaultAddress = report.Snapshot.FaultAddress
	}
	log.OrNoop(cfg.Events).Log(ev)

	return report, nil
}

// Err returns ErrResetLoop if the report shows a reset loop.
func (r Report) Err() error {
	if r.ResetLoop {
		return fmt.Errorf("%w: %d consecutive watchdog resets", ErrResetLoop, r.ResetCount)
	}
	return nil
}

func saturatingInc(n uint8) uint8 {
	if n == math.MaxUint8 {
		return n
	}
	return n + 1
}
