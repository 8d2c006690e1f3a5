package boundcall

import (
	"context"
	"sync"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
)

var defaultExecutor = sync.OnceValue(func() *Executor {
	return New(alarm.New(alarm.Config{Name: "boundcall"}))
})

// Default returns the process-wide executor used by CallWithWatchdog.
// Its alarm has no Resetter, so a caller that fails to unwind within one
// period after a timeout takes the process down.
func Default() *Executor {
	return defaultExecutor()
}

// CallWithWatchdog runs fn(args, results) on the default executor and
// reports whether it returned within about one period of t. It returns
// false on a timeout and also when the call could not run at all (another
// call outstanding, or a panic), which is logged.
func CallWithWatchdog(fn Procedure, args, results any, t alarm.Timeout) bool {
	e := Default()
	ok, err := e.Call(context.Background(), fn, args, results, t)
	if err != nil {
		e.logger.Warn("bounded call failed", "error", err)
	}
	return ok
}
