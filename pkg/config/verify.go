package config

import (
	"errors"
	"fmt"

	"github.com/mash-protocol/mash-wdt/pkg/diag"
	"github.com/mash-protocol/mash-wdt/pkg/version"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *Config) error {
	var errs []error

	if err := version.CheckConfigFormat(cfg.Version); err != nil {
		errs = append(errs, fmt.Errorf("version: %w", err))
	}
	if cfg.StateDir == "" {
		errs = append(errs, errors.New("state_dir is required"))
	}
	if _, err := cfg.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be text or json", cfg.Log.Format))
	}

	errs = append(errs, verifySupervisor(cfg)...)
	if _, err := cfg.CallTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("bounded_call.default_timeout: %w", err))
	}
	errs = append(errs, verifyDiagnostics(&cfg.Diagnostics)...)

	return errors.Join(errs...)
}

func verifySupervisor(cfg *Config) []error {
	var errs []error
	t, err := cfg.SupervisorTimeout()
	if err != nil {
		errs = append(errs, fmt.Errorf("supervisor.timeout: %w", err))
	}
	if cfg.Supervisor.KickInterval <= 0 {
		errs = append(errs, errors.New("supervisor.kick_interval must be positive"))
	} else if err == nil && cfg.Supervisor.Enabled && cfg.Supervisor.KickInterval >= t.Duration() {
		errs = append(errs, fmt.Errorf("supervisor.kick_interval %s must be shorter than supervisor.timeout %s",
			cfg.Supervisor.KickInterval, t))
	}
	return errs
}

func verifyDiagnostics(d *DiagnosticsSection) []error {
	var errs []error
	if d.EEPROMPath == "" {
		errs = append(errs, errors.New("diagnostics.eeprom_path is required"))
	}
	if d.BaseAddress < 0 {
		errs = append(errs, errors.New("diagnostics.base_address must not be negative"))
	}
	recordLen := diag.RecordSize(diag.SnapshotSize)
	if d.EEPROMSize < d.BaseAddress+recordLen {
		errs = append(errs, fmt.Errorf("diagnostics.eeprom_size %d cannot hold a %d-byte record at address %d",
			d.EEPROMSize, recordLen, d.BaseAddress))
	}
	if d.Magic < 0 || d.Magic > 0xFF {
		errs = append(errs, fmt.Errorf("diagnostics.magic %d must fit in one byte", d.Magic))
	}
	if d.MaxResetLoops < 0 || d.MaxResetLoops > 0xFF {
		errs = append(errs, fmt.Errorf("diagnostics.max_reset_loops %d must be between 0 and 255", d.MaxResetLoops))
	}
	return errs
}
