package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

func TestStatsSummary(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := sampleEvents(ts)
	events = append(events,
		log.Event{
			Timestamp: ts.Add(200 * time.Millisecond),
			BootID:    "boot-aaaa-1111",
			Component: log.ComponentExecutor,
			Category:  log.CategoryCall,
			Call:      &log.CallEvent{CallID: "call-2", Outcome: log.CallCompleted, Elapsed: 3 * time.Millisecond},
		},
		log.Event{
			Timestamp: ts.Add(2 * time.Second),
			BootID:    "boot-aaaa-1111",
			Component: log.ComponentSupervisor,
			Category:  log.CategoryFault,
			Fault:     &log.FaultEvent{Address: 0x10},
		},
		log.Event{
			Timestamp: ts.Add(4 * time.Second),
			BootID:    "boot-aaaa-1111",
			Component: log.ComponentAlarm,
			Category:  log.CategoryAlarm,
			Alarm:     &log.AlarmEvent{Action: log.AlarmReset},
		},
		log.Event{
			Timestamp: ts.Add(5 * time.Second),
			BootID:    "boot-bbbb-2222",
			Component: log.ComponentRecovery,
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Component: log.ComponentRecovery, Message: "x"},
		},
	)
	path := createTestTraceFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 7",
		"ALARM:",
		"EXECUTOR:",
		"TIMED_OUT:",
		"COMPLETED:",
		"Longest completed: 3.000ms",
		"Boots: 2",
		"[boot-aaa] 6 events",
		"Reset cause: watchdog",
		"Timed out calls: 1",
		"Ended in watchdog reset",
		"Faults: 1",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestTraceFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestStatsMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunStats(filepath.Join(t.TempDir(), "missing.wlog"), &buf); err == nil {
		t.Error("expected error for missing file")
	}
}
