package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/system"
	"github.com/mash-protocol/mash-wdt/pkg/version"
)

// Default configuration values.
const (
	DefaultStateDir = "/var/lib/mash-wdt"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultSupervisorTimeout = "2s"
	DefaultKickInterval      = 250 * time.Millisecond
	DefaultCallTimeout       = "125ms"

	DefaultEEPROMFile    = "eeprom.bin"
	DefaultEEPROMSize    = 1024
	DefaultMaxResetLoops = 5
)

// Config is the root configuration for mash-wdt.
type Config struct {
	// Version is the configuration format, "major.minor".
	Version string `koanf:"version" yaml:"version"`

	// StateDir holds the reset latch, the EEPROM image and the event trace.
	StateDir string `koanf:"state_dir" yaml:"state_dir"`

	Log         LogSection         `koanf:"log" yaml:"log"`
	Supervisor  SupervisorSection  `koanf:"supervisor" yaml:"supervisor"`
	BoundedCall BoundedCallSection `koanf:"bounded_call" yaml:"bounded_call"`
	Diagnostics DiagnosticsSection `koanf:"diagnostics" yaml:"diagnostics"`
	Metrics     MetricsSection     `koanf:"metrics" yaml:"metrics"`
}

// LogSection configures operational logging and the event trace.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`

	// Events is the event trace file. Relative paths are resolved against
	// the state directory. Empty disables the trace.
	Events string `koanf:"events" yaml:"events"`
}

// SupervisorSection configures the supervisory watchdog of the run loop.
type SupervisorSection struct {
	Enabled      bool          `koanf:"enabled" yaml:"enabled"`
	Timeout      string        `koanf:"timeout" yaml:"timeout"`
	KickInterval time.Duration `koanf:"kick_interval" yaml:"kick_interval"`
}

// BoundedCallSection configures the bounded-call executor.
type BoundedCallSection struct {
	DefaultTimeout string `koanf:"default_timeout" yaml:"default_timeout"`
}

// DiagnosticsSection configures the diagnostic snapshot store.
type DiagnosticsSection struct {
	// EEPROMPath is the non-volatile memory image. Relative paths are
	// resolved against the state directory.
	EEPROMPath    string `koanf:"eeprom_path" yaml:"eeprom_path"`
	EEPROMSize    int    `koanf:"eeprom_size" yaml:"eeprom_size"`
	BaseAddress   int    `koanf:"base_address" yaml:"base_address"`
	Magic         int    `koanf:"magic" yaml:"magic"`
	MaxResetLoops int    `koanf:"max_reset_loops" yaml:"max_reset_loops"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Listen is the address serving /metrics. Empty disables the endpoint.
	Listen string `koanf:"listen" yaml:"listen"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version:  version.ConfigFormat,
		StateDir: DefaultStateDir,
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Supervisor: SupervisorSection{
			Enabled:      true,
			Timeout:      DefaultSupervisorTimeout,
			KickInterval: DefaultKickInterval,
		},
		BoundedCall: BoundedCallSection{
			DefaultTimeout: DefaultCallTimeout,
		},
		Diagnostics: DiagnosticsSection{
			EEPROMPath:    DefaultEEPROMFile,
			EEPROMSize:    DefaultEEPROMSize,
			Magic:         int(diag.DefaultMagic),
			MaxResetLoops: DefaultMaxResetLoops,
		},
	}
}

// SupervisorTimeout returns the parsed supervisor period.
func (c *Config) SupervisorTimeout() (alarm.Timeout, error) {
	return alarm.ParseTimeout(c.Supervisor.Timeout)
}

// CallTimeout returns the parsed default bounded-call period.
func (c *Config) CallTimeout() (alarm.Timeout, error) {
	return alarm.ParseTimeout(c.BoundedCall.DefaultTimeout)
}

// LogLevel returns the parsed operational log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// LatchPath returns the reset latch file.
func (c *Config) LatchPath() string {
	return filepath.Join(c.StateDir, system.DefaultLatchFile)
}

// EEPROMPath returns the resolved EEPROM image path.
func (c *Config) EEPROMPath() string {
	return c.resolve(c.Diagnostics.EEPROMPath)
}

// EventsPath returns the resolved event trace path, or "" when disabled.
func (c *Config) EventsPath() string {
	if c.Log.Events == "" {
		return ""
	}
	return c.resolve(c.Log.Events)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.StateDir, p)
}

// Marshal encodes the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// normalize trims and lower-cases enumerated string settings.
func normalize(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Supervisor.Timeout = strings.TrimSpace(cfg.Supervisor.Timeout)
	cfg.BoundedCall.DefaultTimeout = strings.TrimSpace(cfg.BoundedCall.DefaultTimeout)
}
