package log

import (
	"time"

	"github.com/google/uuid"
)

// bootID identifies this process lifetime in every emitted event.
var bootID = uuid.NewString()

// BootID returns the identifier shared by all events of this process lifetime.
func BootID() string {
	return bootID
}

// Event represents a watchdog trace event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// BootID identifies the process lifetime (UUID).
	BootID string `cbor:"2,keyasint"`

	// Component that emitted the event.
	Component Component `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Name is the instance name of the emitting alarm or executor.
	Name string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Alarm *AlarmEvent     `cbor:"10,keyasint,omitempty"`
	Call  *CallEvent      `cbor:"11,keyasint,omitempty"`
	Fault *FaultEvent     `cbor:"12,keyasint,omitempty"`
	Boot  *BootEvent      `cbor:"13,keyasint,omitempty"`
	Error *ErrorEventData `cbor:"14,keyasint,omitempty"`
}

// NewEvent returns an event stamped with the current time and BootID.
func NewEvent(component Component, category Category, name string) Event {
	return Event{
		Timestamp: time.Now(),
		BootID:    bootID,
		Component: component,
		Category:  category,
		Name:      name,
	}
}

// Component indicates which part of the watchdog emitted the event.
type Component uint8

const (
	// ComponentAlarm is the emulated deadline alarm peripheral.
	ComponentAlarm Component = 0
	// ComponentExecutor is the bounded-call executor.
	ComponentExecutor Component = 1
	// ComponentSupervisor is the supervisory liveness watchdog.
	ComponentSupervisor Component = 2
	// ComponentRecovery is the boot-time diagnostic recovery.
	ComponentRecovery Component = 3
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentAlarm:
		return "ALARM"
	case ComponentExecutor:
		return "EXECUTOR"
	case ComponentSupervisor:
		return "SUPERVISOR"
	case ComponentRecovery:
		return "RECOVERY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAlarm indicates an alarm register or countdown event.
	CategoryAlarm Category = 0
	// CategoryCall indicates a bounded-call outcome.
	CategoryCall Category = 1
	// CategoryFault indicates a captured supervisor fault.
	CategoryFault Category = 2
	// CategoryBoot indicates a boot-time recovery report.
	CategoryBoot Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAlarm:
		return "ALARM"
	case CategoryCall:
		return "CALL"
	case CategoryFault:
		return "FAULT"
	case CategoryBoot:
		return "BOOT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AlarmAction is what happened to an alarm.
type AlarmAction uint8

const (
	// AlarmArm indicates the alarm was armed in interrupt and reset mode.
	AlarmArm AlarmAction = 0
	// AlarmDisarm indicates the alarm was fully disabled.
	AlarmDisarm AlarmAction = 1
	// AlarmKick indicates the countdown was restarted.
	AlarmKick AlarmAction = 2
	// AlarmInterrupt indicates the first-stage expiry dispatched the handler.
	AlarmInterrupt AlarmAction = 3
	// AlarmReset indicates the second-stage expiry reset the system.
	AlarmReset AlarmAction = 4
)

// String returns the action name.
func (a AlarmAction) String() string {
	switch a {
	case AlarmArm:
		return "ARM"
	case AlarmDisarm:
		return "DISARM"
	case AlarmKick:
		return "KICK"
	case AlarmInterrupt:
		return "INTERRUPT"
	case AlarmReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// AlarmEvent captures a change of the alarm peripheral.
type AlarmEvent struct {
	// Action performed or observed.
	Action AlarmAction `cbor:"1,keyasint"`

	// Period is the configured countdown period.
	Period time.Duration `cbor:"2,keyasint,omitempty"`

	// Control is the control register value after the action.
	Control uint8 `cbor:"3,keyasint"`
}

// CallOutcome is how a bounded call ended.
type CallOutcome uint8

const (
	// CallCompleted indicates the procedure returned before the deadline.
	CallCompleted CallOutcome = 0
	// CallTimedOut indicates the deadline fired and the worker was abandoned.
	CallTimedOut CallOutcome = 1
	// CallCanceled indicates the caller's context ended first.
	CallCanceled CallOutcome = 2
	// CallPanicked indicates the procedure panicked.
	CallPanicked CallOutcome = 3
	// CallRejected indicates another call was still outstanding.
	CallRejected CallOutcome = 4
)

// String returns the outcome name.
func (o CallOutcome) String() string {
	switch o {
	case CallCompleted:
		return "COMPLETED"
	case CallTimedOut:
		return "TIMED_OUT"
	case CallCanceled:
		return "CANCELED"
	case CallPanicked:
		return "PANICKED"
	case CallRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// CallEvent captures the outcome of one bounded call.
type CallEvent struct {
	// CallID identifies the call (UUID).
	CallID string `cbor:"1,keyasint"`

	// Outcome of the call.
	Outcome CallOutcome `cbor:"2,keyasint"`

	// Timeout is the configured deadline.
	Timeout time.Duration `cbor:"3,keyasint"`

	// Elapsed is the time from arming to convergence. Stored as nanoseconds.
	Elapsed time.Duration `cbor:"4,keyasint"`

	// Detail is the panic value or cancellation cause, if any.
	Detail string `cbor:"5,keyasint,omitempty"`
}

// FaultEvent captures a supervisor fault at first-stage expiry.
type FaultEvent struct {
	// Address is the last checkpoint program counter.
	Address uint64 `cbor:"1,keyasint"`

	// Function is the symbol containing Address.
	Function string `cbor:"2,keyasint,omitempty"`

	// File and Line locate Address in source.
	File string `cbor:"3,keyasint,omitempty"`
	Line int    `cbor:"4,keyasint,omitempty"`

	// SinceKick is how long the supervised loop went without a kick.
	SinceKick time.Duration `cbor:"5,keyasint"`
}

// BootEvent captures the reset cause and diagnostic recovery at startup.
type BootEvent struct {
	// ResetFlags is the raw reset-status register.
	ResetFlags uint8 `cbor:"1,keyasint"`

	// Cause is the decoded reset cause.
	Cause string `cbor:"2,keyasint"`

	// SnapshotValid reports whether a trustworthy snapshot was recovered.
	SnapshotValid bool `cbor:"3,keyasint"`

	// ResetCount is the consecutive watchdog reset count.
	ResetCount uint8 `cbor:"4,keyasint"`

	// FaultAddress from the recovered snapshot.
	FaultAddress uint32 `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors in any component.
type ErrorEventData struct {
	// Component where the error occurred.
	Component Component `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
