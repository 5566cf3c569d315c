package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete host configuration, loaded from an HCL file
// with flag overrides applied on top.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains the listener and logging configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	DataDir  string `hcl:"data_dir,optional"`
}

// GameSettings contains the table defaults and the host-side pacing
// knobs. Durations are in milliseconds in the file.
type GameSettings struct {
	MinPlayers        int `hcl:"min_players,optional"`
	MaxPlayers        int `hcl:"max_players,optional"`
	MaxCardsPerPlayer int `hcl:"max_cards_per_player,optional"`

	AIMoveDelayMs    int `hcl:"ai_move_delay_ms,optional"`
	TrickDisplayMs   int `hcl:"trick_display_ms,optional"`
	DisconnectGraceS int `hcl:"disconnect_grace_seconds,optional"`
}

// DefaultConfig returns the host defaults used when no config file
// exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			DataDir:  "whoopie-data",
		},
		Game: GameSettings{
			MinPlayers:        2,
			MaxPlayers:        10,
			AIMoveDelayMs:     800,
			TrickDisplayMs:    2000,
			DisconnectGraceS:  60,
			MaxCardsPerPlayer: 0,
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file
// yields the defaults; a present file is decoded and backfilled with
// defaults for anything it leaves out.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.DataDir == "" {
		config.Server.DataDir = defaults.Server.DataDir
	}
	if config.Game.MinPlayers == 0 {
		config.Game.MinPlayers = defaults.Game.MinPlayers
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if config.Game.AIMoveDelayMs == 0 {
		config.Game.AIMoveDelayMs = defaults.Game.AIMoveDelayMs
	}
	if config.Game.TrickDisplayMs == 0 {
		config.Game.TrickDisplayMs = defaults.Game.TrickDisplayMs
	}
	if config.Game.DisconnectGraceS == 0 {
		config.Game.DisconnectGraceS = defaults.Game.DisconnectGraceS
	}

	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.Server.LogLevel)
	}

	if c.Game.MinPlayers < 2 {
		return fmt.Errorf("min_players must be at least 2, got %d", c.Game.MinPlayers)
	}
	if c.Game.MaxPlayers > 10 {
		return fmt.Errorf("max_players must be at most 10, got %d", c.Game.MaxPlayers)
	}
	if c.Game.MinPlayers > c.Game.MaxPlayers {
		return fmt.Errorf("min_players %d exceeds max_players %d", c.Game.MinPlayers, c.Game.MaxPlayers)
	}
	if c.Game.MaxCardsPerPlayer < 0 {
		return fmt.Errorf("max_cards_per_player must not be negative, got %d", c.Game.MaxCardsPerPlayer)
	}
	if c.Game.AIMoveDelayMs < 0 || c.Game.TrickDisplayMs < 0 || c.Game.DisconnectGraceS < 0 {
		return fmt.Errorf("pacing delays must not be negative")
	}

	return nil
}

// ListenAddress returns the host:port string for the listener.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// AIMoveDelay returns the AI pacing delay as a duration.
func (c *Config) AIMoveDelay() time.Duration {
	return time.Duration(c.Game.AIMoveDelayMs) * time.Millisecond
}

// TrickDisplay returns how long a completed trick stays on the table
// before the host advances play.
func (c *Config) TrickDisplay() time.Duration {
	return time.Duration(c.Game.TrickDisplayMs) * time.Millisecond
}

// DisconnectGrace returns how long a dropped human keeps their seat
// before a bot takes over.
func (c *Config) DisconnectGrace() time.Duration {
	return time.Duration(c.Game.DisconnectGraceS) * time.Second
}
