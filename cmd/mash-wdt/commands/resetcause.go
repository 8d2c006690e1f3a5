package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/system"
)

// ResetCauseCommand returns the reset-cause command.
func ResetCauseCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-cause",
		Usage: "Decode the latched reset-status flags",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clear", Usage: "Clear the latch after reading, as boot does"},
		},
		Action: func(c *cli.Context) error {
			latch := GetEnv(c).Latch()

			var (
				flags system.ResetFlags
				err   error
			)
			if c.Bool("clear") {
				flags, err = latch.Capture()
			} else {
				flags, err = latch.Peek()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Reset flags: %s\n", flags)
			fmt.Fprintf(c.App.Writer, "Reset cause: %s\n", flags.Cause())
			return nil
		},
	}
}
