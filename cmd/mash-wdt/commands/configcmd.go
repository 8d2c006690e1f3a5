package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/config"
)

// ConfigCommand returns the config command.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(c *cli.Context) error {
			data, err := config.Marshal(GetEnv(c).Config)
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}
