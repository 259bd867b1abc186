// internal/config/flags.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bethropolis/provtrace/internal/core/policy"
)

// Flag names shared by Register and ApplyOverrides.
const (
	FlagConfig             = "config"
	FlagMode               = "mode"
	FlagLogLevel           = "loglevel"
	FlagLogFile            = "logfile"
	FlagLogTags            = "log-tags"
	FlagLogDisableTags     = "log-disable-tags"
	FlagLogPackages        = "log-packages"
	FlagLogDisablePackages = "log-disable-packages"
	FlagLogDir             = "log-dir"
	FlagDatabase           = "db"
	FlagParseOnBackward    = "parse-on-backward"
	FlagSystemClipboard    = "system-clipboard"
)

// Register defines the configuration flags on fs.
func Register(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	fs.String(FlagMode, "", "Edit policy mode (unrestricted, machine-only) - Overrides config file")
	fs.String(FlagLogLevel, "", "Log level (debug, info, warn, error) - Overrides config file")
	fs.String(FlagLogFile, "", "Path to write log file (use '-' for stderr) - Overrides config file")
	fs.String(FlagLogTags, "", "Comma-separated list of tags to enable - Overrides config file")
	fs.String(FlagLogDisableTags, "", "Comma-separated list of tags to disable - Overrides config file")
	fs.String(FlagLogPackages, "", "Comma-separated list of packages to enable - Overrides config file")
	fs.String(FlagLogDisablePackages, "", "Comma-separated list of packages to disable - Overrides config file")
	fs.String(FlagLogDir, "", "Directory for per-session event logs - Overrides config file")
	fs.String(FlagDatabase, "", "SQLite database that also stores every record - Overrides config file")
	fs.Bool(FlagParseOnBackward, DefaultParseOnBackward, "Run the parse trigger on backward cursor movement")
	fs.Bool(FlagSystemClipboard, SystemClipboard, "Paste from the system clipboard instead of the internal one")
}

// ApplyOverrides updates cfg with the flags of fs that were set.
func ApplyOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(fl *pflag.Flag) {
		if !fl.Changed || err != nil {
			return
		}
		value := fl.Value.String()
		switch fl.Name {
		case FlagMode:
			var mode policy.Mode
			if mode, err = policy.ParseMode(value); err == nil {
				cfg.Tracker.Mode = mode
			}
		case FlagLogLevel:
			if value != "" {
				cfg.Logger.LogLevel = value
			}
		case FlagLogFile:
			cfg.Logger.LogFilePath = value
		case FlagLogTags:
			cfg.Logger.EnabledTags = splitCommaList(value)
		case FlagLogDisableTags:
			cfg.Logger.DisabledTags = splitCommaList(value)
		case FlagLogPackages:
			cfg.Logger.EnabledPackages = splitCommaList(value)
		case FlagLogDisablePackages:
			cfg.Logger.DisabledPackages = splitCommaList(value)
		case FlagLogDir:
			cfg.Tracker.LogDir = value
		case FlagDatabase:
			cfg.Tracker.Database = value
		case FlagParseOnBackward:
			cfg.Tracker.ParseOnBackward, err = fs.GetBool(FlagParseOnBackward)
		case FlagSystemClipboard:
			cfg.Tracker.SystemClipboard, err = fs.GetBool(FlagSystemClipboard)
		}
		if err != nil {
			err = fmt.Errorf("flag --%s: %w", fl.Name, err)
		}
	})
	return err
}

func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
