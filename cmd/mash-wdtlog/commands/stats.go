package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents       int
	EventsByComponent map[log.Component]int
	EventsByCategory  map[log.Category]int
	AlarmActions      map[log.AlarmAction]int
	CallOutcomes      map[log.CallOutcome]int
	LongestCompleted  time.Duration
	Faults            int
	Errors            int
	Boots             map[string]*BootStats
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// BootStats holds statistics for a single process lifetime.
type BootStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Cause     string
	TimedOut  int
	Faults    int
	Resets    int
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByComponent: make(map[log.Component]int),
		EventsByCategory:  make(map[log.Category]int),
		AlarmActions:      make(map[log.AlarmAction]int),
		CallOutcomes:      make(map[log.CallOutcome]int),
		Boots:             make(map[string]*BootStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByComponent[event.Component]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	boot, ok := s.Boots[event.BootID]
	if !ok {
		boot = &BootStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Boots[event.BootID] = boot
	}
	boot.Events++
	if event.Timestamp.Before(boot.FirstSeen) {
		boot.FirstSeen = event.Timestamp
	}
	if event.Timestamp.After(boot.LastSeen) {
		boot.LastSeen = event.Timestamp
	}

	switch {
	case event.Alarm != nil:
		s.AlarmActions[event.Alarm.Action]++
		if event.Alarm.Action == log.AlarmReset {
			boot.Resets++
		}
	case event.Call != nil:
		s.CallOutcomes[event.Call.Outcome]++
		switch event.Call.Outcome {
		case log.CallTimedOut:
			boot.TimedOut++
		case log.CallCompleted:
			if event.Call.Elapsed > s.LongestCompleted {
				s.LongestCompleted = event.Call.Elapsed
			}
		}
	case event.Fault != nil:
		s.Faults++
		boot.Faults++
	case event.Boot != nil:
		boot.Cause = event.Boot.Cause
	case event.Error != nil:
		s.Errors++
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Watchdog Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Component:")
	for _, c := range []log.Component{log.ComponentAlarm, log.ComponentExecutor, log.ComponentSupervisor, log.ComponentRecovery} {
		if count := stats.EventsByComponent[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Alarm Actions:")
	for _, a := range []log.AlarmAction{log.AlarmArm, log.AlarmDisarm, log.AlarmKick, log.AlarmInterrupt, log.AlarmReset} {
		if count := stats.AlarmActions[a]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", a.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Call Outcomes:")
	for _, o := range []log.CallOutcome{log.CallCompleted, log.CallTimedOut, log.CallCanceled, log.CallPanicked, log.CallRejected} {
		if count := stats.CallOutcomes[o]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", o.String()+":", count)
		}
	}
	if stats.LongestCompleted > 0 {
		fmt.Fprintf(w, "  Longest completed: %s\n", formatDuration(stats.LongestCompleted))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Boots: %d\n", len(stats.Boots))
	if len(stats.Boots) > 0 {
		type bootInfo struct {
			id    string
			stats *BootStats
		}
		boots := make([]bootInfo, 0, len(stats.Boots))
		for id, bs := range stats.Boots {
			boots = append(boots, bootInfo{id, bs})
		}
		sort.Slice(boots, func(i, j int) bool {
			return boots[i].stats.FirstSeen.Before(boots[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, b := range boots {
			duration := b.stats.LastSeen.Sub(b.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(b.id), b.stats.Events, duration)
			if b.stats.Cause != "" {
				fmt.Fprintf(w, "           Reset cause: %s\n", b.stats.Cause)
			}
			if b.stats.TimedOut > 0 {
				fmt.Fprintf(w, "           Timed out calls: %d\n", b.stats.TimedOut)
			}
			if b.stats.Faults > 0 {
				fmt.Fprintf(w, "           Faults: %d\n", b.stats.Faults)
			}
			if b.stats.Resets > 0 {
				fmt.Fprintf(w, "           Ended in watchdog reset\n")
			}
		}
	}

	if stats.Faults > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Faults: %d\n", stats.Faults)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
