// Package server assembles the HTTP surface: middleware, the event bus,
// and every module's routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/middleware"
	"github.com/cinelog/cinelog/internal/modules/modulemanager"

	// Modules self-register through their init functions.
	_ "github.com/cinelog/cinelog/internal/modules/catalogmodule"
	_ "github.com/cinelog/cinelog/internal/modules/databasemodule"
	_ "github.com/cinelog/cinelog/internal/modules/engagementmodule"
	_ "github.com/cinelog/cinelog/internal/modules/reviewmodule"
	_ "github.com/cinelog/cinelog/internal/modules/socialmodule"
	_ "github.com/cinelog/cinelog/internal/modules/usermodule"
)

// Server is the assembled application.
type Server struct {
	router *gin.Engine
	bus    *events.Bus
	db     *gorm.DB
	http   *http.Server
}

// New builds the router, starts the event bus, and loads all modules.
func New(db *gorm.DB) (*Server, error) {
	cfg := config.Get()

	storage := events.NewDatabaseStorage(db)
	if err := storage.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate event storage: %w", err)
	}
	bus := events.NewBus(events.DefaultConfig(), storage)
	events.SetGlobalBus(bus)
	if err := bus.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorLogger())
	if cfg.Server.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, middleware.IdentityHeader)
		router.Use(cors.New(corsConfig))
	}
	router.Use(middleware.Identity(db))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	if err := modulemanager.LoadAll(db); err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}
	modulemanager.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		router: router,
		bus:    bus,
		db:     db,
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Router returns the gin engine, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	logger.Info("http server listening", "addr", s.http.Addr)
	events.PublishGlobal(events.New(events.EventSystemStarted, "server", "Server started", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server and drains the event bus.
func (s *Server) Shutdown(ctx context.Context) error {
	events.PublishGlobal(events.New(events.EventSystemStopped, "server", "Server stopping", ""))

	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	return s.bus.Stop(ctx)
}
