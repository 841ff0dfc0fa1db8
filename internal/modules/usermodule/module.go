// Package usermodule owns accounts and their profiles. Every user has
// exactly one profile, created in the same transaction as the user.
package usermodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/modules/modulemanager"
)

func init() {
	Register()
}

const (
	ModuleID   = "core.users"
	ModuleName = "Users"
)

// Module implements user and profile management.
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

// Migrate creates the user and profile tables.
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.User{}, &database.Profile{})
}

// Init wires the service against the shared database.
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	m.service = NewService(m.db)
	logger.Info("user module initialized")
	return nil
}

// RegisterRoutes registers the user HTTP routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	registerRoutes(router, m.service)
}
