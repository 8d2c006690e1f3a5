// Command mash-wdtlog is a tool for viewing and analyzing watchdog trace files.
//
// Trace files are written by mash-wdt when log.events is configured. Each
// process lifetime carries its own boot ID, so one file can span several
// watchdog resets.
//
// Usage:
//
//	mash-wdtlog <command> [flags] <file.wlog>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	mash-wdtlog view events.wlog
//
//	# View only bounded-call outcomes
//	mash-wdtlog view --category call events.wlog
//
//	# Export to JSONL
//	mash-wdtlog export --format jsonl events.wlog
//
//	# Keep only the boot that ended in a reset
//	mash-wdtlog filter --boot-id 5f2c0a1e-... -o crash.wlog events.wlog
//
//	# Show statistics
//	mash-wdtlog stats events.wlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mash-protocol/mash-wdt/cmd/mash-wdtlog/commands"
)

const usage = `mash-wdtlog - Watchdog Trace Analyzer

Usage:
  mash-wdtlog <command> [flags] <file.wlog>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file

Use "mash-wdtlog <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.BootID, "boot-id", "", "Filter by boot ID")
	fs.StringVar(&opts.Component, "component", "", "Filter by component (alarm, executor, supervisor, recovery)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (alarm, call, fault, boot, error)")
	fs.StringVar(&opts.Name, "name", "", "Filter by alarm, executor or supervisor name")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return opts
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mash-wdtlog view - View trace file in human-readable format

Usage:
  mash-wdtlog view [flags] <file.wlog>

Flags:
`)
		fs.PrintDefaults()
	}
	opts := filterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mash-wdtlog export - Export trace file to JSON or CSV format

Usage:
  mash-wdtlog export [flags] <file.wlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mash-wdtlog filter - Filter trace file and write to new file

Usage:
  mash-wdtlog filter [flags] <file.wlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	count, err := commands.RunFilter(path, filter, *output)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `mash-wdtlog stats - Show statistics about the trace file

Usage:
  mash-wdtlog stats <file.wlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
