package boundcall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// Executor errors.
var (
	ErrCallOutstanding = errors.New("bounded call already outstanding")
	ErrNilProcedure    = errors.New("nil procedure")
)

// Procedure is the bounded target. It receives the caller's argument and
// result buffers unchanged and must not retain them.
type Procedure func(args, results any)

// PanicError is returned when the procedure panics before the deadline.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("bounded call panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Executor runs procedures under a deadline alarm.
type Executor struct {
	alarm  *alarm.Alarm
	logger *slog.Logger
	events log.Logger

	outstanding atomic.Pointer[callContext]
	workers     atomic.Int64
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithEvents sets the watchdog trace logger.
func WithEvents(l log.Logger) Option {
	return func(e *Executor) {
		e.events = l
	}
}

// New creates an executor that owns the deadline alarm a. The alarm must not
// be armed by anyone else while the executor is in use.
func New(a *alarm.Alarm, opts ...Option) *Executor {
	e := &Executor{
		alarm:  a,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.events = log.OrNoop(e.events)
	e.logger = e.logger.With("executor", a.Name())
	return e
}

// Alarm returns the deadline alarm.
func (e *Executor) Alarm() *alarm.Alarm {
	return e.alarm
}

// Busy returns true while a call is outstanding.
func (e *Executor) Busy() bool {
	return e.outstanding.Load() != nil
}

// Workers returns the number of worker goroutines still executing,
// including workers abandoned by timed-out or canceled calls.
func (e *Executor) Workers() int64 {
	return e.workers.Load()
}

// Call runs fn(args, results) and waits at most about one period of t for
// it to return.
//
// It returns true, nil if fn returned before the deadline. On a timeout it
// returns false, nil and abandons the worker, which may still write to
// results later. If ctx ends first it returns false and the context error,
// also abandoning the worker. A panic in fn is returned as *PanicError.
// Timeouts are never retried.
func (e *Executor) Call(ctx context.Context, fn Procedure, args, results any, t alarm.Timeout) (bool, error) {
	if fn == nil {
		return false, ErrNilProcedure
	}

	cc := newCallContext()
	if !e.outstanding.CompareAndSwap(nil, cc) {
		e.emit(cc, log.CallRejected, t, 0, "")
		return false, ErrCallOutstanding
	}
	defer e.outstanding.Store(nil)

	e.alarm.Arm(t, cc)
	e.workers.Add(1)
	go e.run(cc, fn, args, results)

	select {
	case <-cc.resolved:
	case <-ctx.Done():
		cc.resolve(stateCanceled, nil)
		<-cc.resolved
	}

	// Keep the second stage away while unwinding, then read what happened.
	e.alarm.Kick()
	timedOut := cc.fired.Load()
	e.alarm.Disarm()
	elapsed := time.Since(cc.startedAt)

	if timedOut {
		e.logger.Warn("bounded call timed out, worker abandoned",
			"call_id", cc.id, "timeout", t.String(), "elapsed", elapsed)
		e.emit(cc, log.CallTimedOut, t, elapsed, "")
		return false, nil
	}

	switch cc.result() {
	case stateCompleted:
		e.logger.Debug("bounded call completed", "call_id", cc.id, "elapsed", elapsed)
		e.emit(cc, log.CallCompleted, t, elapsed, "")
		return true, nil
	case statePanicked:
		e.logger.Error("bounded call panicked", "call_id", cc.id, "panic", cc.panicErr.Value)
		e.emit(cc, log.CallPanicked, t, elapsed, fmt.Sprint(cc.panicErr.Value))
		return false, cc.panicErr
	default:
		err := context.Cause(ctx)
		e.logger.Info("bounded call canceled, worker abandoned", "call_id", cc.id, "error", err)
		e.emit(cc, log.CallCanceled, t, elapsed, err.Error())
		return false, ctx.Err()
	}
}

// run is the worker. It resolves the call unless the deadline or the caller
// got there first.
func (e *Executor) run(cc *callContext, fn Procedure, args, results any) {
	defer e.workers.Add(-1)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		pe := &PanicError{Value: r, Stack: debug.Stack()}
		if !cc.resolve(statePanicked, func() { cc.panicErr = pe }) {
			e.logger.Warn("abandoned bounded call panicked", "call_id", cc.id, "panic", r)
		}
	}()

	fn(args, results)

	if !cc.resolve(stateCompleted, nil) {
		e.logger.Info("abandoned bounded call returned",
			"call_id", cc.id, "after", time.Since(cc.startedAt))
	}
}

func (e *Executor) emit(cc *callContext, outcome log.CallOutcome, t alarm.Timeout, elapsed time.Duration, detail string) {
	ev := log.NewEvent(log.ComponentExecutor, log.CategoryCall, e.alarm.Name())
	ev.Call = &log.CallEvent{
		CallID:  cc.id,
		Outcome: outcome,
		Timeout: t.Duration(),
		Elapsed: elapsed,
		Detail:  detail,
	}
	e.events.Log(ev)
}

// CallTyped is Call for procedures with concrete argument and result types.
func CallTyped[A, R any](ctx context.Context, e *Executor, fn func(*A, *R), args *A, results *R, t alarm.Timeout) (bool, error) {
	if fn == nil {
		return false, ErrNilProcedure
	}
	return e.Call(ctx, func(a, r any) {
		fn(a.(*A), r.(*R))
	}, args, results, t)
}
