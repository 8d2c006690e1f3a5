// Package config defines the mash-wdt configuration and its loader.
//
// Configuration is read with koanf from, in increasing priority:
//
//   - built-in defaults (Default)
//   - a YAML file
//   - environment variables prefixed with MASH_WDT_
//
// Environment keys are lower-cased and a double underscore separates
// sections, so MASH_WDT_SUPERVISOR__TIMEOUT=2s sets supervisor.timeout and
// MASH_WDT_STATE_DIR sets state_dir.
//
// A Watcher reports changes to the configuration file so long-running
// commands can apply settings such as the log level without a restart.
package config
