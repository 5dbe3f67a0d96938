// Package config loads and persists pkger's TOML configuration.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete pkger configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Cache   CacheConfig   `toml:"cache"`
	Output  OutputConfig  `toml:"output"`
}

// GeneralConfig contains general backend settings.
type GeneralConfig struct {
	// AURHelper specifies which AUR helper to use (yay, paru).
	AURHelper string `toml:"aur_helper"`

	// AutoConfirm skips confirmation prompts before mutating operations.
	AutoConfirm bool `toml:"auto_confirm"`

	// RejectBusy rejects a second mutating operation with an error instead
	// of queueing it behind the running one.
	RejectBusy bool `toml:"reject_busy"`

	// TerminateGraceSeconds is how long a cancelled process gets between
	// SIGTERM and SIGKILL.
	TerminateGraceSeconds int `toml:"terminate_grace_seconds"`

	// LogLevel sets the backend log level (debug, info, warn, error).
	LogLevel string `toml:"log_level"`
}

// CacheConfig contains metadata cache settings.
type CacheConfig struct {
	// StalenessMinutes is the age after which a snapshot is considered
	// stale for background refresh purposes. Stale data is still served.
	StalenessMinutes int `toml:"staleness_minutes"`

	// Persist enables the on-disk snapshot store so a restart does not
	// begin with an empty cache.
	Persist bool `toml:"persist"`
}

// OutputConfig contains terminal output settings for the CLI front-end.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			AURHelper:             "yay",
			AutoConfirm:           false,
			RejectBusy:            false,
			TerminateGraceSeconds: 5,
			LogLevel:              "info",
		},
		Cache: CacheConfig{
			StalenessMinutes: 15,
			Persist:          true,
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
		},
	}
}

// TerminateGrace returns the configured grace period as a duration.
func (c *Config) TerminateGrace() time.Duration {
	if c.General.TerminateGraceSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.General.TerminateGraceSeconds) * time.Second
}

// Staleness returns the configured staleness threshold as a duration.
func (c *Config) Staleness() time.Duration {
	if c.Cache.StalenessMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Cache.StalenessMinutes) * time.Minute
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}
