// Package engagementmodule owns the per-user movie sets: watchlist,
// likes, and watched history.
package engagementmodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/modules/catalogmodule"
	"github.com/cinelog/cinelog/internal/modules/modulemanager"
	"github.com/cinelog/cinelog/internal/modules/usermodule"
)

func init() {
	Register()
}

const (
	ModuleID   = "core.engagement"
	ModuleName = "Engagement"
)

// Module implements the watchlist, like, and watched toggles.
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

// Dependencies declares that the user and movie tables must exist first.
func (m *Module) Dependencies() []string {
	return []string{usermodule.ModuleID, catalogmodule.ModuleID}
}

// Migrate creates the engagement tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.WatchList{}, &database.Like{}, &database.Watched{})
}

// Init wires the service against the shared database.
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	m.service = NewService(m.db)
	logger.Info("engagement module initialized")
	return nil
}

// RegisterRoutes registers the engagement HTTP routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	registerRoutes(router, m.service)
}
