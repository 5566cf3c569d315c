package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/whoopiegame/whoopie/internal/server"
	"github.com/whoopiegame/whoopie/internal/store"
)

// ServeCmd runs the websocket host.
type ServeCmd struct {
	Config  string `short:"c" default:"whoopie.hcl" help:"Path to the HCL config file"`
	Addr    string `help:"Override the listen address"`
	Port    int    `help:"Override the listen port"`
	DataDir string `help:"Override the snapshot directory"`
	Seed    *int64 `help:"Deterministic seed for deals (optional)"`
	Debug   bool   `help:"Enable debug logging"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.DataDir != "" {
		cfg.Server.DataDir = c.DataDir
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level: logLevel(cfg.Server.LogLevel),
	})

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	st, err := store.New(cfg.Server.DataDir, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	s := server.NewServer(cfg.ListenAddress(), logger)
	s.SetManager(server.NewManager(s, st, quartz.NewReal(), cfg, rng, logger))

	logger.Info("Starting Whoopie host",
		"address", cfg.ListenAddress(),
		"data_dir", cfg.Server.DataDir,
		"min_players", cfg.Game.MinPlayers,
		"max_players", cfg.Game.MaxPlayers)

	// Start blocks until shutdown; it returns nil after a clean Stop
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutting down", "signal", sig)
		return s.Stop()
	case err := <-serverErr:
		return err
	}
}

func logLevel(name string) log.Level {
	switch name {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
