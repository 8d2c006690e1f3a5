package log

// Logger is the interface applications implement to receive watchdog events.
// Pass nil or NoopLogger to disable the trace.
type Logger interface {
	// Log records an event. Implementations must be thread-safe and must not
	// block: events are emitted from expiry paths that run on a deadline.
	Log(event Event)
}

// NoopLogger discards all events. Use when the trace is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
