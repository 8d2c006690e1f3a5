// Package commands provides the mash-wdt command definitions.
//
// It uses urfave/cli/v2 for command parsing. Global flags select the
// configuration; every command receives the resulting Env through the
// application metadata.
package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/version"
)

// envKey is the App.Metadata key holding the *Env.
const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "mash-wdt",
		Usage:   "Bounded-call watchdog with supervisory reset and diagnostic recovery",
		Version: version.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RunCommand(),
			CallCommand(),
			ConsoleCommand(),
			SnapshotCommand(),
			ResetCauseCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			env, err := NewEnv(c)
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[envKey] = env
			return nil
		},
		After: func(c *cli.Context) error {
			if env := GetEnv(c); env != nil {
				return env.Close()
			}
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"MASH_WDT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "state-dir",
			Usage: "Directory for the reset latch, EEPROM image and event trace",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:  "events",
			Usage: "Event trace file (relative to the state directory)",
		},
	}
}

// overrides maps the global flags that were set to configuration keys.
func overrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"state-dir":  "state_dir",
		"log-level":  "log.level",
		"log-format": "log.format",
		"events":     "log.events",
	}
	out := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			out[key] = c.String(flag)
		}
	}
	return out
}

// GetEnv retrieves the command environment from the context.
func GetEnv(c *cli.Context) *Env {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env
	}
	return nil
}
