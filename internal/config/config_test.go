package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/provtrace/internal/core/policy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, policy.Unrestricted, cfg.Tracker.Mode)
	assert.True(t, cfg.Tracker.ParseOnBackward)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[logger]
level = "debug"
enabled_tags = ["session", "policy"]

[tracker]
mode = "machine-only"
parse_on_backward = false
log_dir = "  /tmp/provtrace  "
colour = "blue"
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, policy.MachineOnly, cfg.Tracker.Mode)
	assert.False(t, cfg.Tracker.ParseOnBackward)
	assert.Equal(t, "/tmp/provtrace", cfg.Tracker.LogDir)
	assert.Equal(t, "debug", cfg.Logger.LogLevel)
	assert.Equal(t, []string{"session", "policy"}, cfg.Logger.EnabledTags)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "tracker.colour")
}

func TestLoadRejectsBadMode(t *testing.T) {
	path := writeConfig(t, "[tracker]\nmode = \"human-only\"\n")
	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestInvalidLevelFallsBack(t *testing.T) {
	path := writeConfig(t, "[logger]\nlevel = \"chatty\"\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
	assert.Len(t, cfg.Warnings, 1)
}

func TestFlagOverrides(t *testing.T) {
	path := writeConfig(t, "[tracker]\nmode = \"machine-only\"\nlog_dir = \"from-file\"\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Register(fs)
	require.NoError(t, fs.Parse([]string{
		"--mode", "unrestricted",
		"--loglevel", "warn",
		"--log-disable-tags=cursor, event",
		"--parse-on-backward=false",
	}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, policy.Unrestricted, cfg.Tracker.Mode)
	assert.Equal(t, "warn", cfg.Logger.LogLevel)
	assert.Equal(t, []string{"cursor", "event"}, cfg.Logger.DisabledTags)
	assert.False(t, cfg.Tracker.ParseOnBackward)
	// Unset flags keep file values.
	assert.Equal(t, "from-file", cfg.Tracker.LogDir)
	assert.True(t, cfg.Tracker.SystemClipboard)
}

func TestFlagOverrideBadMode(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Register(fs)
	require.NoError(t, fs.Parse([]string{"--mode", "sometimes"}))
	err := ApplyOverrides(NewDefaultConfig(), fs)
	assert.ErrorContains(t, err, "--mode")
}
