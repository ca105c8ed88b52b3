// Package main is the entry point for the event board server.
//
// The main package stays minimal — its job is to:
// 1. Read configuration
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.), which keeps the components testable.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/saicojavc/When-Babe/internal/config"
	"github.com/saicojavc/When-Babe/internal/server"
)

func main() {
	configPath := flag.String("config", "whenbabe.yaml", "path to the YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// A missing config file is fine — defaults plus env overrides cover
	// the common single-host deployment.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Ensure the data directory exists before SQLite tries to create the
	// database file in it.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
