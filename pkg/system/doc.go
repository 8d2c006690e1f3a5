// Package system provides reset-cause decoding and process-level helpers
// for watchdog-supervised programs.
//
// ResetFlags mirrors a microcontroller reset-status register. Because a
// process has no such register, Latch keeps one in a small state file that
// survives a restart: the watchdog reset path sets the watchdog bit before
// restarting the process, and startup code captures and clears it. A
// missing latch file means the process was started from cold and reads as
// a power-on reset.
//
// The package also provides the unrecoverable halt path and introspection
// helpers (free memory, program counter, uptime) used for diagnostics.
package system
