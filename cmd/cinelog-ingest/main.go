// Command cinelog-ingest fills the catalog from the TMDB API. It is an
// offline tool: run it against the same database the server uses.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/ingest"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/modules/catalogmodule"
	"github.com/cinelog/cinelog/internal/modules/modulemanager"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	target := flag.Int("target", 0, "override the movie import target")
	flag.Parse()

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

	ingestCfg := cfg.Ingest
	if *target > 0 {
		ingestCfg.MovieTarget = *target
	}
	if ingestCfg.APIKey == "" {
		logger.Error("TMDB_API_KEY is required")
		os.Exit(1)
	}

	if err := database.Initialize(cfg.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	if err := modulemanager.LoadAll(database.GetDB()); err != nil {
		logger.Error("failed to load modules", "error", err)
		os.Exit(1)
	}

	module, ok := modulemanager.GetModule(catalogmodule.ModuleID)
	if !ok {
		logger.Error("catalog module not registered")
		os.Exit(1)
	}
	catalog := module.(*catalogmodule.Module).Service()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := ingest.NewRunner(ingest.NewClient(ingestCfg), catalog, ingestCfg)
	if _, err := runner.Run(ctx); err != nil {
		logger.Error("ingestion aborted", "error", err)
		os.Exit(1)
	}
}
