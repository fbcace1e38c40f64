package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"recordings/internal/config"
	"recordings/internal/server"
	"recordings/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOut := os.Stdout
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, cfg.ServiceName, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"data_dir", cfg.DataDir,
	)

	st, err := store.Open(cfg.DataDir, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	srv := server.New(cfg, st, nil, logger)
	srv.OnStateChange(func() {
		if port, ok := srv.Port(); ok {
			logger.Info("server listening", "port", port)
		} else if err := srv.Err(); err != nil {
			logger.Error("server stopped", "error", err)
		}
	})
	srv.Start()

	if err := srv.Err(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	srv.Stop()
	logger.Info("server stopped")
}
