// Command mash-wdt runs and inspects the bounded-call watchdog.
//
// Usage:
//
//	mash-wdt [global flags] <command> [flags]
//
// Commands:
//
//	run          Run the supervised demo loop with bounded sensor polls
//	call         Run one bounded call and report whether it completed
//	console      Interactive alarm register console
//	snapshot     Show, clear or dump the diagnostic snapshot
//	reset-cause  Show the latched reset cause
//	config       Print the effective configuration
//	version      Print build information
//
// Examples:
//
//	# Run with a supervisor that resets the process if the loop stalls
//	mash-wdt --state-dir /tmp/wdt run --stall-after 10s
//
//	# A 500ms poll against a 125ms deadline
//	mash-wdt call --timeout 125ms --work 500ms
//
//	# Inspect what the last watchdog reset left behind
//	mash-wdt snapshot show
package main

import (
	"fmt"
	"os"

	"github.com/mash-protocol/mash-wdt/cmd/mash-wdt/commands"
)

func main() {
	app := commands.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
