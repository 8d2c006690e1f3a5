// Package alarm emulates a two-stage hardware watchdog peripheral.
//
// An Alarm is a countdown with an 8-bit control register laid out like the
// AVR WDTCSR register. Once armed in interrupt and reset mode, the first
// expiry clears the interrupt-enable bit and dispatches the installed
// Handler. If nothing kicks or disarms the alarm within one more period,
// the second expiry asks the Resetter to reset the system. The second stage
// runs on its own countdown and does not depend on the handler returning.
//
// # Register Protocol
//
// The reset-enable bit and the prescaler are protected by a timed change
// sequence. Writing WDCE|WDE opens a change window for the next write only.
// A write outside the window cannot clear WDE or change the prescaler. Such
// writes are silently ignored, exactly like the hardware ignores them.
// Arm and Disarm perform the sequence under the interrupt gate. WriteControl
// is exported for tooling and tests that exercise the raw protocol.
//
// # Periods
//
// The prescaler selects one of ten fixed periods, from 16ms to 8s:
//
//	a := alarm.New(alarm.Config{Name: "deadline", Resetter: r})
//	a.Arm(alarm.Timeout250ms, handler)
//	...
//	a.Kick()    // still alive
//	a.Disarm()  // done, stop counting
//
// Handlers run on the countdown goroutine outside the gate. They may call
// back into the Alarm.
package alarm
