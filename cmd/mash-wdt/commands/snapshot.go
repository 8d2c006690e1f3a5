package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// SnapshotCommand returns the snapshot command.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Inspect the diagnostic snapshot record",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the stored snapshot if it is valid",
				Action: snapshotShow,
			},
			{
				Name:   "clear",
				Usage:  "Invalidate the stored snapshot",
				Action: snapshotClear,
			},
			{
				Name:   "dump",
				Usage:  "Hex dump the raw record",
				Action: snapshotDump,
			},
		},
	}
}

func snapshotShow(c *cli.Context) error {
	store, err := GetEnv(c).SnapshotStore()
	if err != nil {
		return err
	}
	snap, ok, err := store.Load()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.App.Writer, "Diagnostic snapshot: none")
		return nil
	}
	printSnapshot(c.App.Writer, snap)
	return nil
}

func snapshotClear(c *cli.Context) error {
	store, err := GetEnv(c).SnapshotStore()
	if err != nil {
		return err
	}
	if err := store.Invalidate(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Diagnostic snapshot invalidated")
	return nil
}

func snapshotDump(c *cli.Context) error {
	store, err := GetEnv(c).SnapshotStore()
	if err != nil {
		return err
	}
	return store.Dump(c.App.Writer)
}
