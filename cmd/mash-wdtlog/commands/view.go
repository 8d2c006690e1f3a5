// Package commands implements the mash-wdtlog CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// timestampLayout is used for every timestamp the tool prints.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [boot:id] COMPONENT name Type
	ts := event.Timestamp.UTC().Format(timestampLayout)
	bootID := shortenID(event.BootID)

	name := event.Name
	if name == "" {
		name = "-"
	}

	fmt.Fprintf(w, "%s [boot:%s] %s %s %s\n", ts, bootID, event.Component.String(), name, typeLabel(event))

	switch {
	case event.Alarm != nil:
		formatAlarmDetails(w, event.Alarm)
	case event.Call != nil:
		formatCallDetails(w, event.Call)
	case event.Fault != nil:
		formatFaultDetails(w, event.Fault)
	case event.Boot != nil:
		formatBootDetails(w, event.Boot)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload carried by the event.
func typeLabel(event log.Event) string {
	switch {
	case event.Alarm != nil:
		return event.Alarm.Action.String()
	case event.Call != nil:
		return "Call " + event.Call.Outcome.String()
	case event.Fault != nil:
		return "Fault"
	case event.Boot != nil:
		return "Boot"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of an identifier.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatAlarmDetails(w io.Writer, a *log.AlarmEvent) {
	if a.Period > 0 {
		fmt.Fprintf(w, "  Period: %s\n", a.Period)
	}
	fmt.Fprintf(w, "  Control: 0x%02x\n", a.Control)
}

func formatCallDetails(w io.Writer, c *log.CallEvent) {
	fmt.Fprintf(w, "  CallID: %s\n", c.CallID)
	fmt.Fprintf(w, "  Timeout: %s  Elapsed: %s\n", c.Timeout, formatDuration(c.Elapsed))
	if c.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", c.Detail)
	}
}

func formatFaultDetails(w io.Writer, f *log.FaultEvent) {
	fmt.Fprintf(w, "  Address: %s\n", log.FormatAddress(f.Address))
	if f.Function != "" {
		fmt.Fprintf(w, "  Function: %s\n", f.Function)
	}
	if f.File != "" {
		fmt.Fprintf(w, "  Location: %s:%d\n", f.File, f.Line)
	}
	fmt.Fprintf(w, "  Since kick: %s\n", formatDuration(f.SinceKick))
}

func formatBootDetails(w io.Writer, b *log.BootEvent) {
	fmt.Fprintf(w, "  Cause: %s (flags 0x%02x)\n", b.Cause, b.ResetFlags)
	if b.SnapshotValid {
		fmt.Fprintf(w, "  Snapshot: valid, fault address %s\n", log.FormatAddress(uint64(b.FaultAddress)))
	} else {
		fmt.Fprintln(w, "  Snapshot: none")
	}
	if b.ResetCount > 0 {
		fmt.Fprintf(w, "  Consecutive watchdog resets: %d\n", b.ResetCount)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Component: %s\n", err.Component.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseComponentFlag parses a component string from a command-line flag (case-insensitive).
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "alarm":
		return log.ComponentAlarm, nil
	case "executor":
		return log.ComponentExecutor, nil
	case "supervisor":
		return log.ComponentSupervisor, nil
	case "recovery":
		return log.ComponentRecovery, nil
	default:
		return 0, fmt.Errorf("invalid component: %s (must be alarm, executor, supervisor, or recovery)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "alarm":
		return log.CategoryAlarm, nil
	case "call":
		return log.CategoryCall, nil
	case "fault":
		return log.CategoryFault, nil
	case "boot":
		return log.CategoryBoot, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be alarm, call, fault, boot, or error)", s)
	}
}

// FilterOptions holds the filter flags shared by the view and filter commands.
type FilterOptions struct {
	BootID    string
	Component string
	Category  string
	Name      string
	TimeStart string
	TimeEnd   string
}

// Build converts the flag values into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		BootID: o.BootID,
		Name:   o.Name,
	}

	if o.Component != "" {
		c, err := ParseComponentFlag(o.Component)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Component = &c
	}

	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunView prints every event matching filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
