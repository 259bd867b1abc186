// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/bethropolis/provtrace/internal/core/policy"
	"github.com/bethropolis/provtrace/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger  logger.Config `toml:"logger"`
	Tracker TrackerConfig `toml:"tracker"`

	// Warnings collected while loading, for logging once the logger is up.
	Warnings []string `toml:"-"`
}

// TrackerConfig holds the provenance tracking settings.
type TrackerConfig struct {
	Mode            policy.Mode `toml:"mode"`
	ParseOnBackward bool        `toml:"parse_on_backward"`
	// LogDir receives one <session-id>.jsonl event log per session. Empty
	// writes records to stdout.
	LogDir string `toml:"log_dir"`
	// Database is a SQLite file that also receives every record, keyed by
	// session. Empty disables it.
	Database        string `toml:"database"`
	SystemClipboard bool   `toml:"system_clipboard"`
}

// NewDefaultConfig creates a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Tracker: TrackerConfig{
			Mode:            policy.Unrestricted,
			ParseOnBackward: DefaultParseOnBackward,
			SystemClipboard: SystemClipboard,
		},
	}
}

// DefaultPath returns ~/.config/provtrace/config.toml, or "" when the user
// config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// loadFromFile decodes filePath over cfg. A missing file is not an error.
func loadFromFile(filePath string, cfg *Config) error {
	_, err := os.Stat(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		cfg.Warnings = append(cfg.Warnings,
			fmt.Sprintf("config file '%s': unrecognized keys: %s", filePath, strings.Join(keys, ", ")))
	}
	return nil
}

// validate resets invalid values to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()
	if _, ok := logger.ParseLevel(c.Logger.LogLevel); !ok {
		c.Warnings = append(c.Warnings, fmt.Sprintf("unknown log level %q, using %q", c.Logger.LogLevel, defaults.Logger.LogLevel))
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	c.Tracker.LogDir = strings.TrimSpace(c.Tracker.LogDir)
	c.Tracker.Database = strings.TrimSpace(c.Tracker.Database)
}

// Load builds the configuration from defaults, the TOML file at path (or
// DefaultPath when empty) and the flags of fs that were set on the command
// line. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := NewDefaultConfig()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		if err := ApplyOverrides(cfg, fs); err != nil {
			return nil, err
		}
	}

	cfg.validate()
	return cfg, nil
}
