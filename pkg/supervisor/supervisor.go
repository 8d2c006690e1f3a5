package supervisor

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/log"
	"github.com/mash-protocol/mash-wdt/pkg/system"
)

// Supervisor errors.
var (
	ErrAlreadyRunning = errors.New("supervisor already running")
	ErrNotRunning     = errors.New("supervisor not running")
)

// maxStackDump bounds the goroutine dump attached to a fault.
const maxStackDump = 64 << 10

// Fault describes a supervised loop that stopped checking in.
type Fault struct {
	// Address is the program counter of the last Kick call site.
	Address uintptr

	// Location resolves Address in source.
	Location system.Location

	// LastKick is when the loop last checked in.
	LastKick time.Time

	// At is when the first alarm stage fired.
	At time.Time

	// FreeMemory is the free heap in bytes when the fault was captured.
	FreeMemory uint32

	// Stacks is a dump of all goroutines, truncated to 64KiB.
	Stacks []byte
}

// Snapshot returns the diagnostic snapshot to persist for this fault.
// The snapshot keeps only the low 32 bits of Address. Resolve it with
// system.LocateAddress32, which refuses addresses that did not fit.
func (f Fault) Snapshot(resetCounter uint8) diag.Snapshot {
	return diag.Snapshot{
		ResetCounter:      resetCounter,
		FreeMemoryAtFault: f.FreeMemory,
		FaultAddress:      uint32(f.Address),
		Timestamp:         uint32(f.At.Sub(system.BootTime()).Milliseconds()),
	}
}

// DiagnosticFunc receives the fault at the first alarm stage. It runs with
// one alarm period left before the reset and should only persist state.
type DiagnosticFunc func(Fault)

// Config holds supervisor configuration.
type Config struct {
	// Timeout is the liveness period.
	Timeout alarm.Timeout

	// OnFault is called once per fault. May be nil.
	OnFault DiagnosticFunc

	// Logger is the operational logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Events receives the watchdog trace. Defaults to log.NoopLogger.
	Events log.Logger
}

type checkpoint struct {
	pc  uintptr
	loc system.Location
	at  time.Time
}

// Supervisor is a liveness watchdog for one loop.
type Supervisor struct {
	alarm   *alarm.Alarm
	timeout alarm.Timeout
	onFault DiagnosticFunc
	logger  *slog.Logger
	events  log.Logger

	mu      sync.Mutex
	running bool
	faulted bool
	stopped chan struct{}
	last    checkpoint

	faults atomic.Uint64
}

// New creates a stopped supervisor on the dedicated alarm a.
func New(a *alarm.Alarm, cfg Config) *Supervisor {
	s := &Supervisor{
		alarm:   a,
		timeout: cfg.Timeout,
		onFault: cfg.OnFault,
		logger:  cfg.Logger,
		events:  log.OrNoop(cfg.Events),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("supervisor", a.Name())
	return s
}

// Start arms the alarm. The call site of Start is the first checkpoint.
func (s *Supervisor) Start() error {
	pc, loc := system.Caller(1)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.faulted = false
	s.stopped = make(chan struct{})
	s.last = checkpoint{pc: pc, loc: loc, at: time.Now()}
	s.mu.Unlock()

	s.alarm.Arm(s.timeout, s)
	s.logger.Info("supervisor started", "timeout", s.timeout.String())
	return nil
}

// Kick records the caller as the latest checkpoint and restarts the
// countdown. It is a no-op on a stopped supervisor and once a fault has
// been captured: the second-stage reset cannot be held off by a loop that
// resumes late.
func (s *Supervisor) Kick() {
	pc, loc := system.Caller(1)

	s.mu.Lock()
	if !s.running || s.faulted {
		s.mu.Unlock()
		return
	}
	s.last = checkpoint{pc: pc, loc: loc, at: time.Now()}
	s.mu.Unlock()

	s.alarm.Kick()
}

// Stop disarms the alarm and releases a handler waiting for the reset.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	close(s.stopped)
	s.mu.Unlock()

	s.alarm.Disarm()
	s.logger.Info("supervisor stopped")
	return nil
}

// Alarm returns the supervised alarm.
func (s *Supervisor) Alarm() *alarm.Alarm {
	return s.alarm
}

// Faulted returns true from the first alarm stage until the next Start.
func (s *Supervisor) Faulted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faulted
}

// Running returns true between Start and Stop.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Faults returns the number of faults captured so far.
func (s *Supervisor) Faults() uint64 {
	return s.faults.Load()
}

// Expire is the first-stage handler. It captures the fault, hands it to
// the diagnostic callback and then waits for the second stage to reset the
// system. It only returns early if the supervisor is stopped.
func (s *Supervisor) Expire(e alarm.Expiry) {
	s.mu.Lock()
	s.faulted = true
	last := s.last
	stopped := s.stopped
	s.mu.Unlock()

	fault := Fault{
		Address:    last.pc,
		Location:   last.loc,
		LastKick:   last.at,
		At:         e.At,
		FreeMemory: system.FreeMemory(),
		Stacks:     goroutineStacks(),
	}
	s.faults.Add(1)

	s.logger.Error("supervised loop stalled",
		"address", log.FormatAddress(uint64(fault.Address)),
		"function", fault.Location.Function,
		"file", fault.Location.File,
		"line", fault.Location.Line,
		"since_kick", fault.At.Sub(fault.LastKick))

	ev := log.NewEvent(log.ComponentSupervisor, log.CategoryFault, s.alarm.Name())
	ev.Fault = &log.FaultEvent{
		Address:   uint64(fault.Address),
		Function:  fault.Location.Function,
		File:      fault.Location.File,
		Line:      fault.Location.Line,
		SinceKick: fault.At.Sub(fault.LastKick),
	}
	s.events.Log(ev)

	if s.onFault != nil {
		s.runDiagnostic(fault)
	}

	if stopped != nil {
		<-stopped
	}
}

// runDiagnostic shields the reset path from a panicking callback.
func (s *Supervisor) runDiagnostic(f Fault) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("diagnostic callback panicked", "panic", r)
		}
	}()
	s.onFault(f)
}

func goroutineStacks() []byte {
	buf := make([]byte, maxStackDump)
	return buf[:runtime.Stack(buf, true)]
}

var _ alarm.Handler = (*Supervisor)(nil)
