package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := NewEvent(ComponentAlarm, CategoryAlarm, "test")
	logger.Log(event)

	event.Alarm = &AlarmEvent{Action: AlarmArm, Period: 16 * time.Millisecond}
	logger.Log(event)

	event.Alarm = nil
	event.Call = &CallEvent{CallID: "c1", Outcome: CallTimedOut}
	logger.Log(event)

	event.Call = nil
	event.Fault = &FaultEvent{Address: 0x1234}
	logger.Log(event)

	event.Fault = nil
	event.Boot = &BootEvent{Cause: "watchdog"}
	logger.Log(event)

	event.Boot = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}

	m := NewMultiLogger()
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestNewEventStampsBootID(t *testing.T) {
	before := time.Now()
	event := NewEvent(ComponentExecutor, CategoryCall, "exec")

	if event.BootID != BootID() {
		t.Errorf("BootID = %q, want %q", event.BootID, BootID())
	}
	if event.BootID == "" {
		t.Error("BootID is empty")
	}
	if event.Timestamp.Before(before) {
		t.Errorf("Timestamp %v before %v", event.Timestamp, before)
	}
	if event.Component != ComponentExecutor || event.Category != CategoryCall || event.Name != "exec" {
		t.Errorf("NewEvent fields = %v/%v/%q", event.Component, event.Category, event.Name)
	}
}
