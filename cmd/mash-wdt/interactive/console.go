// Package interactive provides the interactive console for mash-wdt.
//
// The console drives one alarm by hand and one bounded-call executor, so the
// register protocol and both expiry stages can be observed step by step.
// A second-stage expiry prints a reset notice instead of restarting.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/boundcall"
	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// Config configures a Console.
type Config struct {
	// Out receives command output. Required.
	Out io.Writer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Events receives the trace of both alarms. May be nil.
	Events log.Logger
}

// Console handles interactive mode for mash-wdt.
type Console struct {
	out    io.Writer
	alarm  *alarm.Alarm
	exec   *boundcall.Executor
	resets atomic.Uint64
}

// New creates a console with its own alarms.
func New(cfg Config) *Console {
	c := &Console{out: cfg.Out}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c.alarm = alarm.New(alarm.Config{
		Name:     "console",
		Resetter: alarm.ResetterFunc(func() { c.reset("console") }),
		Logger:   logger,
		Events:   cfg.Events,
	})
	c.exec = boundcall.New(
		alarm.New(alarm.Config{
			Name:     "console-call",
			Resetter: alarm.ResetterFunc(func() { c.reset("console-call") }),
			Logger:   logger,
			Events:   cfg.Events,
		}),
		boundcall.WithLogger(logger),
		boundcall.WithEvents(cfg.Events),
	)
	return c
}

// Resets returns how many second-stage expiries the console observed.
func (c *Console) Resets() uint64 {
	return c.resets.Load()
}

func (c *Console) reset(name string) {
	c.resets.Add(1)
	fmt.Fprintf(c.out, "\n*** SYSTEM RESET (%s) ***\n", name)
}

// Run starts the readline loop. It returns when the user quits, input
// ends, or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wdt> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	c.out = rl.Stdout()
	defer c.alarm.Disarm()

	c.printHelp()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			return nil
		}
		if c.Exec(ctx, line) {
			return nil
		}
	}
}

func completer() *readline.PrefixCompleter {
	var timeouts []readline.PrefixCompleterInterface
	for _, t := range alarm.Timeouts() {
		timeouts = append(timeouts, readline.PcItem(t.String()))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("arm", timeouts...),
		readline.PcItem("disarm"),
		readline.PcItem("kick"),
		readline.PcItem("write"),
		readline.PcItem("status"),
		readline.PcItem("call", timeouts...),
		readline.PcItem("timeouts"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Exec runs one command line and reports whether the console should exit.
func (c *Console) Exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "arm", "a":
		c.cmdArm(args)
	case "disarm", "d":
		c.alarm.Disarm()
		fmt.Fprintln(c.out, "Alarm disarmed")
	case "kick", "k":
		c.alarm.Kick()
		fmt.Fprintf(c.out, "Kicked, %s remaining\n", c.alarm.Remaining().Round(time.Millisecond))
	case "write", "w":
		c.cmdWrite(args)
	case "status", "s":
		c.cmdStatus()
	case "call", "c":
		c.cmdCall(ctx, args)
	case "timeouts", "t":
		c.cmdTimeouts()
	case "quit", "exit", "q":
		c.alarm.Disarm()
		fmt.Fprintln(c.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Watchdog Console Commands:
  Alarm:
    arm <timeout>          - Arm in interrupt and reset mode
    disarm                 - Disable the alarm
    kick                   - Restart the countdown
    write <hex>            - Store a raw control register value
    status                 - Show the control register and counters
    timeouts               - List the supported periods

  Bounded calls:
    call <timeout> <work>  - Run a procedure that takes <work> (e.g. 300ms)

  Other:
    help                   - Show this help
    quit                   - Exit`)
}

func (c *Console) cmdArm(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: arm <timeout>")
		return
	}
	t, err := alarm.ParseTimeout(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	c.alarm.Arm(t, alarm.HandlerFunc(func(e alarm.Expiry) {
		fmt.Fprintf(c.out, "\n*** ALARM INTERRUPT (%s after %s) ***\n", e.Alarm.Name(), e.Timeout)
	}))
	fmt.Fprintf(c.out, "Alarm armed: %s\n", t)
}

func (c *Console) cmdWrite(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: write <hex>")
		return
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(args[0]), "0x"), 16, 8)
	if err != nil {
		fmt.Fprintf(c.out, "Error: invalid register value %q\n", args[0])
		return
	}
	c.alarm.WriteControl(uint8(v))
	fmt.Fprintf(c.out, "WDTCSR <- 0x%02x, now 0x%02x\n", v, c.alarm.Control())
}

func (c *Console) cmdStatus() {
	ctrl := c.alarm.Control()
	fmt.Fprintf(c.out, "Control:     0x%02x %s\n", ctrl, FormatControl(ctrl))
	fmt.Fprintf(c.out, "Armed:       %t\n", c.alarm.Armed())
	fmt.Fprintf(c.out, "Interrupt:   %t\n", c.alarm.InterruptEnabled())
	fmt.Fprintf(c.out, "Reset:       %t\n", c.alarm.ResetEnabled())
	fmt.Fprintf(c.out, "Timeout:     %s\n", c.alarm.Timeout())
	if c.alarm.Armed() {
		fmt.Fprintf(c.out, "Remaining:   %s\n", c.alarm.Remaining().Round(time.Millisecond))
	}
	fmt.Fprintf(c.out, "Interrupts:  %d\n", c.alarm.Interrupts())
	fmt.Fprintf(c.out, "Resets:      %d\n", c.resets.Load())
	fmt.Fprintf(c.out, "Call busy:   %t\n", c.exec.Busy())
	fmt.Fprintf(c.out, "Abandoned:   %d\n", c.exec.Workers())
}

// FormatControl lists the set bits of a control register value.
func FormatControl(v uint8) string {
	names := []struct {
		bit  uint8
		name string
	}{
		{alarm.WDIF, "WDIF"},
		{alarm.WDIE, "WDIE"},
		{alarm.WDP3, "WDP3"},
		{alarm.WDCE, "WDCE"},
		{alarm.WDE, "WDE"},
		{alarm.WDP2, "WDP2"},
		{alarm.WDP1, "WDP1"},
		{alarm.WDP0, "WDP0"},
	}
	var set []string
	for _, n := range names {
		if v&n.bit != 0 {
			set = append(set, n.name)
		}
	}
	return "[" + strings.Join(set, " ") + "]"
}

type sleepArgs struct {
	Work time.Duration
}

type sleepResult struct {
	Slept time.Duration
}

func sleepFor(a *sleepArgs, r *sleepResult) {
	time.Sleep(a.Work)
	r.Slept = a.Work
}

func (c *Console) cmdCall(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: call <timeout> <work>")
		return
	}
	t, err := alarm.ParseTimeout(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	work, err := time.ParseDuration(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "Error: invalid work duration %q\n", args[1])
		return
	}

	start := time.Now()
	ok, err := boundcall.CallTyped(ctx, c.exec, sleepFor, &sleepArgs{Work: work}, &sleepResult{}, t)
	elapsed := time.Since(start).Round(time.Millisecond)
	switch {
	case err != nil:
		fmt.Fprintf(c.out, "Call failed after %s: %v\n", elapsed, err)
	case ok:
		fmt.Fprintf(c.out, "Call completed in %s\n", elapsed)
	default:
		fmt.Fprintf(c.out, "Call timed out after %s (limit %s), worker abandoned\n", elapsed, t)
	}
}

func (c *Console) cmdTimeouts() {
	for _, t := range alarm.Timeouts() {
		fmt.Fprintf(c.out, "  %-6s code %d\n", t, uint8(t))
	}
}
