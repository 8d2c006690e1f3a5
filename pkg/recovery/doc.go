// Package recovery runs the boot-time diagnostic recovery.
//
// Recover must be the first thing a supervised program does. It captures
// and clears the reset-status latch, trusts the stored diagnostic snapshot
// only after a pure watchdog reset, and always invalidates the stored
// record so a later reset of another kind cannot pick up stale data.
// It also counts consecutive watchdog resets so a program stuck in a
// reset loop can stop and halt instead.
package recovery
