// Package boundcall runs a synchronous procedure under a hard deadline.
//
// The procedure has no cancellation points and knows nothing about the
// deadline. The executor runs it on an isolated worker goroutine, arms a
// deadline alarm and waits for whichever happens first: the procedure
// returns, or the alarm fires. On a timeout the caller regains control
// within about one alarm period and the worker is abandoned.
//
// # Abandonment
//
// Go cannot terminate a goroutine from the outside. A timed-out worker is
// detached, not stopped: it keeps running until the procedure returns on
// its own, if ever. Whatever it holds (locks, file handles, peripherals,
// the results buffer) stays held. After a false result, treat the results
// buffer as poisoned because the abandoned worker may still write to it.
// Executors are therefore meant for procedures whose resources can be
// leaked, such as a stuck sensor read before a supervisory reset.
//
// # Usage
//
//	exec := boundcall.New(alarm.New(alarm.Config{Name: "sensor"}))
//	ok, err := exec.Call(ctx, readSensor, &req, &resp, alarm.Timeout250ms)
//	if err != nil {
//	    return err // canceled, panicked or busy
//	}
//	if !ok {
//	    // timed out; resp must not be used
//	}
//
// One executor runs at most one call at a time. A concurrent Call on the
// same executor fails with ErrCallOutstanding. Use one executor (and
// alarm) per concurrent caller.
package boundcall
