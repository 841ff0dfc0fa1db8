package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	// Missing .env files are fine; the environment still applies.
	_ = godotenv.Load()

	path := *configPath
	if path == "" {
		path = os.Getenv("CINELOG_CONFIG_PATH")
	}
	if err := config.Load(path); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := config.Get()
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	config.AddWatcher(func(old, updated *config.Config) {
		if old.Logging != updated.Logging {
			logger.Configure(updated.Logging.Level, updated.Logging.Format)
		}
		logger.Info("configuration reloaded")
	})
	if path != "" {
		stop, err := config.GetManager().WatchFile()
		if err != nil {
			logger.Warn("config file watching disabled", "error", err)
		} else {
			defer stop()
		}
	}

	if err := database.Initialize(cfg.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(database.GetDB())
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
