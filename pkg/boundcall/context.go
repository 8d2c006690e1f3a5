package boundcall

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
)

// callState is the resolution of one call. It leaves statePending exactly once.
type callState uint32

const (
	statePending callState = iota
	stateCompleted
	stateTimedOut
	stateCanceled
	statePanicked
)

// callContext is the per-call handle shared by the caller, the worker and
// the deadline alarm. It is the alarm's handler for the duration of the call.
type callContext struct {
	id        string
	startedAt time.Time

	state atomic.Uint32

	// fired is written only by the expiry path, before resolved is closed.
	fired atomic.Bool

	// panicErr is written by the worker before it resolves the call.
	panicErr *PanicError

	resolved chan struct{}
}

func newCallContext() *callContext {
	return &callContext{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		resolved:  make(chan struct{}),
	}
}

// resolve moves the call out of statePending. Only the first caller wins.
// before runs between winning and publishing the resolution.
func (c *callContext) resolve(s callState, before func()) bool {
	if !c.state.CompareAndSwap(uint32(statePending), uint32(s)) {
		return false
	}
	if before != nil {
		before()
	}
	close(c.resolved)
	return true
}

func (c *callContext) result() callState {
	return callState(c.state.Load())
}

// Expire is the deadline handler. It records that the deadline fired and
// releases the waiting caller. It never blocks.
func (c *callContext) Expire(alarm.Expiry) {
	c.resolve(stateTimedOut, func() { c.fired.Store(true) })
}

var _ alarm.Handler = (*callContext)(nil)
