// Package log provides the structured watchdog event trace.
//
// This package defines the Logger interface and Event types for capturing
// what the deadline alarms, bounded-call executors and supervisors did:
// arming, kicks, expiries, call outcomes, captured faults and boot recovery.
// It is separate from operational logging (slog). The trace is a complete
// machine-readable record that survives a watchdog reset, so the sequence of
// events leading up to a reset can be inspected after the fact.
//
// # Basic Usage
//
// Components accept a Logger through their configuration:
//
//	// For development: log to console via slog
//	cfg.Events = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Events, _ = log.NewFileLogger("/var/lib/mash-wdt/events.wlog")
//
//	// Both: use MultiLogger
//	cfg.Events = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event carries the emitting component and a category:
//   - Alarm: arm, disarm, kick, interrupt and reset stages (AlarmEvent)
//   - Call: bounded-call outcomes (CallEvent)
//   - Fault: supervisor fault captures (FaultEvent)
//   - Boot: reset cause and diagnostic recovery (BootEvent)
//
// Errors have a dedicated event type. All events of one process lifetime
// share a BootID so a trace spanning several resets can be split per boot.
//
// # File Format
//
// Trace files use CBOR encoding with .wlog extension. The mash-wdtlog CLI
// tool provides viewing, filtering, and export capabilities.
package log
