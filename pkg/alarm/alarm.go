package alarm

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// ErrSystemReset is the panic value of the default Resetter.
var ErrSystemReset = errors.New("watchdog system reset")

// Stage identifies which expiry of a two-stage alarm fired.
type Stage uint8

const (
	// StageInterrupt is the first expiry, which dispatches the handler.
	StageInterrupt Stage = 1

	// StageReset is the second expiry, which resets the system.
	StageReset Stage = 2
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageInterrupt:
		return "INTERRUPT"
	case StageReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// Expiry describes one expiry delivered to a Handler.
type Expiry struct {
	Alarm   *Alarm
	Timeout Timeout
	Stage   Stage
	At      time.Time
}

// Handler receives first-stage expiries.
type Handler interface {
	Expire(Expiry)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Expiry)

// Expire calls f(e).
func (f HandlerFunc) Expire(e Expiry) { f(e) }

// Resetter performs the second-stage system reset.
type Resetter interface {
	SystemReset()
}

// ResetterFunc adapts a function to the Resetter interface.
type ResetterFunc func()

// SystemReset calls f().
func (f ResetterFunc) SystemReset() { f() }

// panicResetter takes the process down with ErrSystemReset.
type panicResetter struct{}

func (panicResetter) SystemReset() { panic(ErrSystemReset) }

// Config holds alarm configuration.
type Config struct {
	// Name identifies the alarm in logs and events.
	Name string

	// Resetter performs the second-stage reset. If nil, the second stage
	// panics with ErrSystemReset on the countdown goroutine, which
	// terminates the process.
	Resetter Resetter

	// Logger is the operational logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Events receives the watchdog trace. Defaults to log.NoopLogger.
	Events log.Logger
}

// Alarm is an emulated two-stage watchdog peripheral.
// It is safe for concurrent use.
type Alarm struct {
	name     string
	resetter Resetter
	logger   *slog.Logger
	events   log.Logger

	// mu is the interrupt gate: register updates and the expiry path
	// exclude each other.
	mu sync.Mutex

	reg       register
	handler   Handler
	countdown *time.Timer
	period    time.Duration
	startedAt time.Time

	// generation invalidates countdowns superseded by a restart.
	generation uint64

	interrupts uint64
	resets     uint64
}

// New creates a disarmed alarm.
func New(cfg Config) *Alarm {
	a := &Alarm{
		name:     cfg.Name,
		resetter: cfg.Resetter,
		logger:   cfg.Logger,
		events:   log.OrNoop(cfg.Events),
	}
	if a.resetter == nil {
		a.resetter = panicResetter{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("alarm", a.name)
	return a
}

// Name returns the configured alarm name.
func (a *Alarm) Name() string {
	return a.name
}

// Arm enables the alarm in interrupt and reset mode with period t and
// installs h as the first-stage handler. The countdown restarts from zero.
//
// t must be one of the defined Timeout constants. Other values are
// truncated to the 4-bit prescaler field as the hardware does.
func (a *Alarm) Arm(t Timeout, h Handler) {
	a.mu.Lock()
	a.restartLocked()
	a.reg.write(a.reg.value | WDCE | WDE)
	a.reg.write(WDIE | WDE | prescalerBits(t))
	a.handler = h
	a.syncCountdownLocked()
	ev := a.eventLocked(log.AlarmArm)
	a.mu.Unlock()

	a.logger.Debug("alarm armed", "timeout", t.String())
	a.events.Log(ev)
}

// Disarm fully disables the alarm and removes the handler. It is safe to
// call on a disarmed alarm.
func (a *Alarm) Disarm() {
	a.mu.Lock()
	wasEnabled := a.reg.enabled()
	a.restartLocked()
	a.reg.write(a.reg.value | WDCE | WDE)
	a.reg.write(0)
	a.handler = nil
	a.syncCountdownLocked()
	ev := a.eventLocked(log.AlarmDisarm)
	a.mu.Unlock()

	if !wasEnabled {
		return
	}
	a.logger.Debug("alarm disarmed")
	a.events.Log(ev)
}

// Kick restarts the countdown without changing the configuration.
// It is a no-op on a disarmed alarm.
func (a *Alarm) Kick() {
	a.mu.Lock()
	if !a.reg.enabled() {
		a.mu.Unlock()
		return
	}
	a.restartLocked()
	ev := a.eventLocked(log.AlarmKick)
	a.mu.Unlock()

	a.events.Log(ev)
}

// WriteControl stores v into the control register, following the timed
// change protocol. Writes that the protocol rejects are silently ignored.
func (a *Alarm) WriteControl(v uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reg.write(v)
	a.syncCountdownLocked()
}

// Control returns the control register value.
func (a *Alarm) Control() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg.value
}

// Armed returns true if the countdown is running in either mode.
func (a *Alarm) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg.enabled()
}

// InterruptEnabled returns true if the next expiry dispatches the handler.
func (a *Alarm) InterruptEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg.value&WDIE != 0
}

// ResetEnabled returns true if an expiry with interrupts disabled resets
// the system.
func (a *Alarm) ResetEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg.value&WDE != 0
}

// Timeout returns the configured prescaler setting.
func (a *Alarm) Timeout() Timeout {
	a.mu.Lock()
	defer a.mu.Unlock()
	return prescalerCode(a.reg.value)
}

// Remaining returns the time until the next expiry.
// Returns 0 if the alarm is disarmed.
func (a *Alarm) Remaining() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.countdown == nil {
		return 0
	}
	remaining := a.period - time.Since(a.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Interrupts returns the number of first-stage expiries so far.
func (a *Alarm) Interrupts() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interrupts
}

// Resets returns the number of second-stage resets so far.
func (a *Alarm) Resets() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resets
}

// restartLocked restarts a running countdown from zero.
func (a *Alarm) restartLocked() {
	if !a.reg.enabled() {
		return
	}
	a.stopLocked()
	a.period = prescalerCode(a.reg.value).Duration()
	a.startedAt = time.Now()
	gen := a.generation
	a.countdown = time.AfterFunc(a.period, func() {
		a.expire(gen)
	})
}

// stopLocked cancels the countdown. A callback that already started sees a
// stale generation and does nothing.
func (a *Alarm) stopLocked() {
	a.generation++
	if a.countdown != nil {
		a.countdown.Stop()
		a.countdown = nil
	}
}

// syncCountdownLocked brings the countdown in line with the register.
func (a *Alarm) syncCountdownLocked() {
	switch {
	case !a.reg.enabled():
		a.stopLocked()
	case a.countdown == nil || a.period != prescalerCode(a.reg.value).Duration():
		a.restartLocked()
	}
}

// expire runs on the countdown goroutine.
func (a *Alarm) expire(gen uint64) {
	a.mu.Lock()
	if gen != a.generation || !a.reg.enabled() {
		a.mu.Unlock()
		return
	}
	a.countdown = nil
	t := prescalerCode(a.reg.value)
	now := time.Now()

	if a.reg.value&WDIE != 0 {
		a.reg.value |= WDIF
		if a.reg.value&WDE != 0 {
			// Interrupt and reset mode: the next expiry resets.
			a.reg.value &^= WDIE
		}
		h := a.handler
		if h != nil {
			// Vectoring to the handler clears the flag.
			a.reg.value &^= WDIF
		}
		a.interrupts++
		a.restartLocked()
		ev := a.eventLocked(log.AlarmInterrupt)
		a.mu.Unlock()

		a.logger.Warn("alarm expired", "timeout", t.String(), "stage", StageInterrupt.String())
		a.events.Log(ev)
		if h != nil {
			h.Expire(Expiry{Alarm: a, Timeout: t, Stage: StageInterrupt, At: now})
		}
		return
	}

	// A reset returns the peripheral to its power-on state.
	a.resets++
	a.stopLocked()
	ev := a.eventLocked(log.AlarmReset)
	a.reg = register{}
	a.handler = nil
	a.mu.Unlock()

	a.logger.Error("alarm expired, resetting system", "timeout", t.String(), "stage", StageReset.String())
	a.events.Log(ev)
	a.resetter.SystemReset()
}

func (a *Alarm) eventLocked(action log.AlarmAction) log.Event {
	ev := log.NewEvent(log.ComponentAlarm, log.CategoryAlarm, a.name)
	ev.Alarm = &log.AlarmEvent{
		Action:  action,
		Control: a.reg.value,
	}
	if a.reg.enabled() || action == log.AlarmReset {
		ev.Alarm.Period = prescalerCode(a.reg.value).Duration()
	}
	return ev
}
