package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mash-wdt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/x.yaml"))
	assert.Equal(t, "TEST_", l.envPrefix)
	assert.Equal(t, "/etc/x.yaml", l.filePath)

	assert.Equal(t, DefaultEnvPrefix, NewLoader().envPrefix)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
state_dir: /tmp/wdt
log:
  level: DEBUG
  format: json
supervisor:
  timeout: 1s
  kick_interval: 100ms
diagnostics:
  magic: 0x5a
  base_address: 16
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/wdt", cfg.StateDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "1s", cfg.Supervisor.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Supervisor.KickInterval)
	assert.Equal(t, 0x5a, cfg.Diagnostics.Magic)
	assert.Equal(t, 16, cfg.Diagnostics.BaseAddress)

	// Untouched keys keep their defaults.
	assert.True(t, cfg.Supervisor.Enabled)
	assert.Equal(t, DefaultCallTimeout, cfg.BoundedCall.DefaultTimeout)
	assert.Equal(t, DefaultEEPROMSize, cfg.Diagnostics.EEPROMSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
state_dir: /from/file
supervisor:
  timeout: 1s
`)
	t.Setenv("MASH_WDT_STATE_DIR", "/from/env")
	t.Setenv("MASH_WDT_SUPERVISOR__TIMEOUT", "4s")
	t.Setenv("MASH_WDT_SUPERVISOR__ENABLED", "false")
	t.Setenv("MASH_WDT_DIAGNOSTICS__MAX_RESET_LOOPS", "9")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.StateDir)
	assert.Equal(t, "4s", cfg.Supervisor.Timeout)
	assert.False(t, cfg.Supervisor.Enabled)
	assert.Equal(t, 9, cfg.Diagnostics.MaxResetLoops)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MASH_WDT_STATE_DIR", "/from/env")

	cfg, err := Load("", map[string]any{
		"state_dir":                    "/from/flag",
		"bounded_call.default_timeout": "500ms",
	})
	require.NoError(t, err)

	assert.Equal(t, "/from/flag", cfg.StateDir)
	assert.Equal(t, "500ms", cfg.BoundedCall.DefaultTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
version: "2.0"
bounded_call:
  default_timeout: 3s
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "default_timeout")
}

func TestMapProvider(t *testing.T) {
	m := mapProvider{"a.b": 1, "a.c": "x", "d": true}

	_, err := m.ReadBytes()
	assert.ErrorIs(t, err, ErrReadBytesNotSupported)

	got, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": "x"},
		"d": true,
	}, got)
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader(WithEnvPrefix("MASH_WDT_TEST_KEYS_"))
	require.NoError(t, l.LoadMap(map[string]any{"log.level": "warn"}))
	assert.Contains(t, l.Keys(), "log.level")
}
