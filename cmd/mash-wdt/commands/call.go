package commands

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/boundcall"
)

// CallCommand returns the call command.
func CallCommand() *cli.Command {
	return &cli.Command{
		Name:  "call",
		Usage: "Run one bounded call and report whether it met its deadline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "timeout", Aliases: []string{"t"}, Usage: "Deadline period (default bounded_call.default_timeout)"},
			&cli.DurationFlag{Name: "work", Value: 10 * time.Millisecond, Usage: "How long the procedure runs"},
			&cli.BoolFlag{Name: "hang", Usage: "Make the procedure never return"},
		},
		Action: runCall,
	}
}

func runCall(c *cli.Context) error {
	env := GetEnv(c)

	t, err := env.Config.CallTimeout()
	if err != nil {
		return err
	}
	if c.IsSet("timeout") {
		if t, err = alarm.ParseTimeout(c.String("timeout")); err != nil {
			return err
		}
	}

	events, err := env.Events()
	if err != nil {
		return err
	}
	exec := boundcall.New(
		alarm.New(alarm.Config{Name: "call", Logger: env.Logger, Events: events}),
		boundcall.WithLogger(env.Logger),
		boundcall.WithEvents(events),
	)

	req := &pollRequest{Seq: 1, Work: c.Duration("work"), Hang: c.Bool("hang")}
	res := &pollResult{}
	start := time.Now()
	ok, err := boundcall.CallTyped(c.Context, exec, pollSensor, req, res, t)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		return fmt.Errorf("bounded call: %w", err)
	}

	out := c.App.Writer
	if ok {
		fmt.Fprintf(out, "Call completed in %s (limit %s), value %.1f\n", elapsed, t, res.Value)
		return nil
	}
	fmt.Fprintf(out, "Call timed out after %s (limit %s), worker abandoned\n", elapsed, t)
	return cli.Exit("", 2)
}
