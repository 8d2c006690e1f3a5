package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see watchdog events in console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("boot_id", event.BootID),
		slog.String("component", event.Component.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Name != "" {
		attrs = append(attrs, slog.String("name", event.Name))
	}

	switch {
	case event.Alarm != nil:
		attrs = append(attrs,
			slog.String("action", event.Alarm.Action.String()),
			slog.Duration("period", event.Alarm.Period),
			slog.Int("control", int(event.Alarm.Control)),
		)
	case event.Call != nil:
		attrs = append(attrs,
			slog.String("call_id", event.Call.CallID),
			slog.String("outcome", event.Call.Outcome.String()),
			slog.Duration("timeout", event.Call.Timeout),
			slog.Duration("elapsed", event.Call.Elapsed),
		)
		if event.Call.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Call.Detail))
		}
	case event.Fault != nil:
		attrs = append(attrs,
			slog.String("address", FormatAddress(event.Fault.Address)),
			slog.String("function", event.Fault.Function),
			slog.Duration("since_kick", event.Fault.SinceKick),
		)
		if event.Fault.File != "" {
			attrs = append(attrs,
				slog.String("file", event.Fault.File),
				slog.Int("line", event.Fault.Line),
			)
		}
	case event.Boot != nil:
		attrs = append(attrs,
			slog.Int("reset_flags", int(event.Boot.ResetFlags)),
			slog.String("cause", event.Boot.Cause),
			slog.Bool("snapshot_valid", event.Boot.SnapshotValid),
			slog.Int("reset_count", int(event.Boot.ResetCount)),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_component", event.Error.Component.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), a.level, "watchdog", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
