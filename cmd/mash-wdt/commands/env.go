package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/mash-protocol/mash-wdt/pkg/config"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/log"
	"github.com/mash-protocol/mash-wdt/pkg/metrics"
	"github.com/mash-protocol/mash-wdt/pkg/system"
)

// Env is the runtime shared by all commands.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Overrides  map[string]any

	Logger  *slog.Logger
	Level   *slog.LevelVar
	Metrics *metrics.Collector

	trace  *log.FileLogger
	events log.Logger
	eeprom *diag.FileEEPROM
}

// NewEnv loads the configuration and sets up logging for a command.
func NewEnv(c *cli.Context) (*Env, error) {
	path := c.String("config")
	ov := overrides(c)

	cfg, err := config.Load(path, ov)
	if err != nil {
		return nil, err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	lv := new(slog.LevelVar)
	lv.Set(level)

	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Overrides:  ov,
		Level:      lv,
		Logger:     newLogger(c.App.ErrWriter, cfg.Log.Format, lv),
		Metrics:    metrics.NewCollector(),
	}
	slog.SetDefault(env.Logger)
	return env, nil
}

func newLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Events returns the event sink: the metrics collector, operational debug
// logging, and the trace file when one is configured. The trace is opened
// on first use.
func (e *Env) Events() (log.Logger, error) {
	if e.events != nil {
		return e.events, nil
	}

	sinks := []log.Logger{
		e.Metrics,
		log.NewSlogAdapter(e.Logger).WithLevel(slog.LevelDebug),
	}
	if path := e.Config.EventsPath(); path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, fmt.Errorf("open event trace: %w", err)
		}
		e.trace = fl
		sinks = append(sinks, fl)
	}
	e.events = log.NewMultiLogger(sinks...)
	return e.events, nil
}

// SyncEvents flushes the trace file to stable storage.
func (e *Env) SyncEvents() {
	if e.trace == nil {
		return
	}
	if err := e.trace.Sync(); err != nil {
		e.Logger.Warn("failed to sync event trace", "error", err)
	}
}

// Latch returns the reset-status latch.
func (e *Env) Latch() *system.Latch {
	return system.NewLatch(e.Config.LatchPath())
}

// SnapshotStore opens the EEPROM image and returns the snapshot store.
func (e *Env) SnapshotStore() (*diag.Store, error) {
	if e.eeprom == nil {
		path := e.Config.EEPROMPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
		nv, err := diag.OpenFileEEPROM(path, int64(e.Config.Diagnostics.EEPROMSize))
		if err != nil {
			return nil, fmt.Errorf("open eeprom: %w", err)
		}
		e.eeprom = nv
	}
	d := e.Config.Diagnostics
	return diag.NewStore(e.eeprom, int64(d.BaseAddress), byte(d.Magic))
}

// Close releases the trace file and the EEPROM image.
func (e *Env) Close() error {
	var errs []error
	if e.trace != nil {
		errs = append(errs, e.trace.Close())
		e.trace = nil
	}
	if e.eeprom != nil {
		errs = append(errs, e.eeprom.Close())
		e.eeprom = nil
	}
	e.events = nil
	return errors.Join(errs...)
}
