package supervisor

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/system"
)

type mockResetter struct {
	mock.Mock
}

func (m *mockResetter) SystemReset() {
	m.Called()
}

func newSupervisor(t *testing.T, r alarm.Resetter, cfg Config) *Supervisor {
	t.Helper()
	s := New(alarm.New(alarm.Config{Name: "supervisor", Resetter: r}), cfg)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

//go:noinline
func stalledLoop(s *Supervisor) {
	s.Kick()
}

func TestSupervisorKickedLoopNeverFaults(t *testing.T) {
	r := &mockResetter{}
	var faults atomic.Int32
	s := newSupervisor(t, r, Config{
		Timeout: alarm.Timeout64ms,
		OnFault: func(Fault) { faults.Add(1) },
	})

	require.NoError(t, s.Start())
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.Kick()
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, int32(0), faults.Load())
	r.AssertNotCalled(t, "SystemReset")
}

func TestSupervisorFaultThenReset(t *testing.T) {
	r := &mockResetter{}
	reset := make(chan struct{})
	r.On("SystemReset").Run(func(mock.Arguments) { close(reset) }).Return().Once()

	faults := make(chan Fault, 1)
	s := newSupervisor(t, r, Config{
		Timeout: alarm.Timeout32ms,
		OnFault: func(f Fault) { faults <- f },
	})

	require.NoError(t, s.Start())
	stalledLoop(s)

	var f Fault
	select {
	case f = <-faults:
	case <-time.After(time.Second):
		t.Fatal("diagnostic callback not called")
	}

	assert.NotZero(t, f.Address)
	assert.True(t, strings.HasSuffix(f.Location.Function, "stalledLoop"), "fault points at %q", f.Location.Function)
	assert.True(t, strings.HasSuffix(f.Location.File, "supervisor_test.go"))
	assert.GreaterOrEqual(t, f.At.Sub(f.LastKick), 30*time.Millisecond)
	assert.NotEmpty(t, f.Stacks)

	select {
	case <-reset:
	case <-time.After(time.Second):
		t.Fatal("second stage did not reset")
	}
	r.AssertExpectations(t)
	assert.Equal(t, uint64(1), s.Faults())
}

func TestSupervisorKickAfterFaultStillResets(t *testing.T) {
	r := &mockResetter{}
	reset := make(chan struct{})
	r.On("SystemReset").Run(func(mock.Arguments) { close(reset) }).Return().Once()

	faulted := make(chan struct{})
	s := newSupervisor(t, r, Config{
		Timeout: alarm.Timeout16ms,
		OnFault: func(Fault) { close(faulted) },
	})
	require.NoError(t, s.Start())

	select {
	case <-faulted:
	case <-time.After(time.Second):
		t.Fatal("diagnostic callback not called")
	}
	assert.True(t, s.Faulted())

	// The loop resumes and checks in again. The reset must still come.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-reset:
				return
			case <-ticker.C:
				s.Kick()
			}
		}
	}()

	select {
	case <-reset:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("kicks after the fault held off the second-stage reset")
	}
	<-done
	r.AssertExpectations(t)
	assert.Equal(t, uint64(1), s.Alarm().Resets())
}

func TestSupervisorRestartClearsFault(t *testing.T) {
	r := &mockResetter{}
	inCallback := make(chan struct{})
	s := newSupervisor(t, r, Config{
		Timeout: alarm.Timeout16ms,
		OnFault: func(Fault) { close(inCallback) },
	})
	require.NoError(t, s.Start())

	select {
	case <-inCallback:
	case <-time.After(time.Second):
		t.Fatal("diagnostic callback not called")
	}
	require.NoError(t, s.Stop())
	assert.True(t, s.Faulted())

	s.onFault = nil
	s.timeout = alarm.Timeout8s
	require.NoError(t, s.Start())
	assert.False(t, s.Faulted())
	s.Kick()
	assert.InDelta(t, float64(8*time.Second), float64(s.Alarm().Remaining()), float64(time.Second))
}

func TestSupervisorStopReleasesHandler(t *testing.T) {
	r := &mockResetter{}
	inCallback := make(chan struct{})
	s := newSupervisor(t, r, Config{
		Timeout: alarm.Timeout64ms,
		OnFault: func(Fault) { close(inCallback) },
	})

	require.NoError(t, s.Start())

	select {
	case <-inCallback:
	case <-time.After(time.Second):
		t.Fatal("diagnostic callback not called")
	}
	require.NoError(t, s.Stop())

	time.Sleep(150 * time.Millisecond)
	r.AssertNotCalled(t, "SystemReset")
	assert.False(t, s.Running())
}

func TestSupervisorPanickingCallbackStillResets(t *testing.T) {
	r := &mockResetter{}
	reset := make(chan struct{})
	r.On("SystemReset").Run(func(mock.Arguments) { close(reset) }).Return().Once()

	s := newSupervisor(t, r, Config{
		Timeout: alarm.Timeout16ms,
		OnFault: func(Fault) { panic("eeprom gone") },
	})
	require.NoError(t, s.Start())

	select {
	case <-reset:
	case <-time.After(time.Second):
		t.Fatal("second stage did not reset after a panicking callback")
	}
}

func TestSupervisorStartStopErrors(t *testing.T) {
	s := newSupervisor(t, &mockResetter{}, Config{Timeout: alarm.Timeout8s})

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)
	assert.True(t, s.Running())
	require.NoError(t, s.Stop())

	// Kick on a stopped supervisor does not re-arm.
	s.Kick()
	assert.False(t, s.Running())
}

func TestFaultSnapshot(t *testing.T) {
	f := Fault{
		Address:    0x4a2,
		At:         time.Now(),
		FreeMemory: 1024,
	}

	snap := f.Snapshot(3)
	assert.Equal(t, diag.Snapshot{
		ResetCounter:      3,
		FreeMemoryAtFault: 1024,
		FaultAddress:      0x4a2,
		Timestamp:         snap.Timestamp,
	}, snap)
	assert.InDelta(t, float64(system.Millis()), float64(snap.Timestamp), 50)
}
