package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/mash-wdt/pkg/alarm"
	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/version"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, version.ConfigFormat, cfg.Version)
	assert.True(t, cfg.Supervisor.Enabled)
	assert.Equal(t, int(diag.DefaultMagic), cfg.Diagnostics.Magic)
	require.NoError(t, Verify(cfg))

	st, err := cfg.SupervisorTimeout()
	require.NoError(t, err)
	assert.Equal(t, alarm.Timeout2s, st)

	ct, err := cfg.CallTimeout()
	require.NoError(t, err)
	assert.Equal(t, alarm.Timeout125ms, ct)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.StateDir = "/state"

	assert.Equal(t, filepath.Join("/state", "reset.flags"), cfg.LatchPath())
	assert.Equal(t, filepath.Join("/state", DefaultEEPROMFile), cfg.EEPROMPath())
	assert.Empty(t, cfg.EventsPath())

	cfg.Log.Events = "trace.wlog"
	assert.Equal(t, filepath.Join("/state", "trace.wlog"), cfg.EventsPath())

	cfg.Diagnostics.EEPROMPath = "/dev/shm/nv.bin"
	assert.Equal(t, "/dev/shm/nv.bin", cfg.EEPROMPath())
}

func TestMarshal(t *testing.T) {
	cfg := Default()
	data, err := Marshal(cfg)
	require.NoError(t, err)

	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, *cfg, got)
	assert.Contains(t, string(data), "kick_interval: 250ms")
}

func TestLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	cfg.Log.Level = "loud"
	_, err = cfg.LogLevel()
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"incompatible version", func(c *Config) { c.Version = "2.0" }, "version"},
		{"no state dir", func(c *Config) { c.StateDir = "" }, "state_dir"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad supervisor timeout", func(c *Config) { c.Supervisor.Timeout = "3s" }, "supervisor.timeout"},
		{"kick too slow", func(c *Config) { c.Supervisor.KickInterval = 5 * time.Second }, "kick_interval"},
		{"zero kick", func(c *Config) { c.Supervisor.KickInterval = 0 }, "kick_interval"},
		{"bad call timeout", func(c *Config) { c.BoundedCall.DefaultTimeout = "100ms" }, "default_timeout"},
		{"small eeprom", func(c *Config) { c.Diagnostics.EEPROMSize = 8 }, "eeprom_size"},
		{"record past end", func(c *Config) { c.Diagnostics.BaseAddress = 1020 }, "eeprom_size"},
		{"magic too wide", func(c *Config) { c.Diagnostics.Magic = 0x100 }, "magic"},
		{"loops too many", func(c *Config) { c.Diagnostics.MaxResetLoops = 300 }, "max_reset_loops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestVerify_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.StateDir = ""
	cfg.Log.Format = "xml"

	err := Verify(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state_dir")
	assert.Contains(t, err.Error(), "log.format")
}

func TestVerify_KickIgnoredWhenSupervisorDisabled(t *testing.T) {
	cfg := Default()
	cfg.Supervisor.Enabled = false
	cfg.Supervisor.KickInterval = 10 * time.Second
	assert.NoError(t, Verify(cfg))
}
