package commands

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/version"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			info := version.Get()
			out := c.App.Writer
			fmt.Fprintf(out, "Version:        %s\n", info.Version)
			fmt.Fprintf(out, "Commit:         %s\n", info.Commit)
			fmt.Fprintf(out, "Built:          %s\n", info.BuildTime)
			fmt.Fprintf(out, "Go:             %s\n", info.GoVersion)
			fmt.Fprintf(out, "Config format:  %s\n", version.ConfigFormat)
			if ts := version.UploadTimestamp(); !ts.IsZero() {
				fmt.Fprintf(out, "Binary time:    %s\n", ts.Format(time.RFC3339))
			}
			return nil
		},
	}
}
