package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/cmd/mash-wdt/interactive"
)

// ConsoleCommand returns the console command.
func ConsoleCommand() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Drive an alarm and bounded calls interactively",
		Action: func(c *cli.Context) error {
			env := GetEnv(c)
			events, err := env.Events()
			if err != nil {
				return err
			}
			return interactive.New(interactive.Config{
				Out:    c.App.Writer,
				Logger: env.Logger,
				Events: events,
			}).Run(c.Context)
		},
	}
}
