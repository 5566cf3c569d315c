package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whoopie.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "localhost:8080", cfg.ListenAddress())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
}

game {
  max_players      = 6
  ai_move_delay_ms = 250
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "0.0.0.0:9090", cfg.ListenAddress())
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 6, cfg.Game.MaxPlayers)
	require.Equal(t, 250, cfg.Game.AIMoveDelayMs)

	// Anything the file leaves out is backfilled from the defaults
	require.Equal(t, "whoopie-data", cfg.Server.DataDir)
	require.Equal(t, 2, cfg.Game.MinPlayers)
	require.Equal(t, 2000, cfg.Game.TrickDisplayMs)
	require.Equal(t, 60, cfg.Game.DisconnectGraceS)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeConfigFile(t, `server { port = `)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"empty data dir", func(c *Config) { c.Server.DataDir = "" }, "data_dir"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "invalid log_level"},
		{"min players too low", func(c *Config) { c.Game.MinPlayers = 1 }, "min_players"},
		{"max players too high", func(c *Config) { c.Game.MaxPlayers = 11 }, "max_players"},
		{"min above max", func(c *Config) { c.Game.MinPlayers = 8; c.Game.MaxPlayers = 4 }, "exceeds"},
		{"negative stanza cap", func(c *Config) { c.Game.MaxCardsPerPlayer = -1 }, "max_cards_per_player"},
		{"negative delay", func(c *Config) { c.Game.AIMoveDelayMs = -1 }, "delays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfigDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Game.AIMoveDelayMs = 150
	cfg.Game.TrickDisplayMs = 1200
	cfg.Game.DisconnectGraceS = 45

	require.Equal(t, 150*time.Millisecond, cfg.AIMoveDelay())
	require.Equal(t, 1200*time.Millisecond, cfg.TrickDisplay())
	require.Equal(t, 45*time.Second, cfg.DisconnectGrace())
}
