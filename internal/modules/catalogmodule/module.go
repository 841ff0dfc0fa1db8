// Package catalogmodule owns the movie catalog: browsing, search,
// aggregate ratings, and cast management.
package catalogmodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/modules/modulemanager"
)

func init() {
	Register()
}

const (
	ModuleID   = "core.catalog"
	ModuleName = "Catalog"
)

// Module implements the movie catalog.
type Module struct {
	db      *gorm.DB
	service *Service
}

// Register registers the module with the module system.
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate creates the catalog tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Movie{}, &database.Person{}, &database.MovieCast{})
}

// Init wires the service against the shared database.
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	cfg := config.Get().Catalog
	m.service = NewService(m.db, PageSizes{
		Browse: cfg.BrowsePageSize,
		Search: cfg.SearchPageSize,
		Review: cfg.ReviewPageSize,
	})
	logger.Info("catalog module initialized")
	return nil
}

// RegisterRoutes registers the catalog HTTP routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	registerRoutes(router, m.service)
}

// Service exposes the catalog service for the ingestion tool, which
// writes through the same creation contracts as the HTTP layer.
func (m *Module) Service() *Service {
	return m.service
}
