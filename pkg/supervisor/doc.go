// Package supervisor implements the supervisory liveness watchdog.
//
// A Supervisor owns its own alarm, separate from any bounded-call deadline.
// The supervised loop calls Kick on every iteration. Each kick records the
// caller's program address as the last checkpoint. If the loop stops
// kicking for one period, the first alarm stage captures a Fault describing
// the last checkpoint and passes it to the diagnostic callback, which
// typically saves a diag.Snapshot. The handler then waits without returning
// and the second alarm stage resets the system one period later.
//
//	sup := supervisor.New(a, supervisor.Config{
//	    Timeout: alarm.Timeout2s,
//	    OnFault: func(f supervisor.Fault) { store.Save(f.Snapshot(counter)) },
//	})
//	sup.Start()
//	for {
//	    sup.Kick()
//	    work()
//	}
package supervisor
