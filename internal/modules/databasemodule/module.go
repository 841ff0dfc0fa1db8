// Package databasemodule exposes storage housekeeping: the persisted
// event log and per-table row counts for operators.
package databasemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cinelog/cinelog/internal/apperrors"
	"github.com/cinelog/cinelog/internal/database"
	"github.com/cinelog/cinelog/internal/events"
	"github.com/cinelog/cinelog/internal/logger"
	"github.com/cinelog/cinelog/internal/modules/modulemanager"
)

func init() {
	Register()
}

const (
	ModuleID   = "system.database"
	ModuleName = "Database"
)

// Module owns the event log table and the stats endpoint.
type Module struct {
	db      *gorm.DB
	storage *events.DatabaseStorage
}

// Register registers the module with the module system.
func Register() {
	modulemanager.Register(&Module{})
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate creates the event log table.
func (m *Module) Migrate(db *gorm.DB) error {
	m.db = db
	m.storage = events.NewDatabaseStorage(db)
	return m.storage.Migrate()
}

func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
		m.storage = events.NewDatabaseStorage(m.db)
	}
	logger.Info("database module initialized")
	return nil
}

// Storage returns the event store backing the bus.
func (m *Module) Storage() *events.DatabaseStorage {
	return m.storage
}

// RegisterRoutes registers the housekeeping routes.
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/system")
	api.GET("/stats", m.stats)
	api.GET("/events", m.recentEvents)
}

// TableStats reports row counts per entity table.
type TableStats struct {
	Users     int64 `json:"users"`
	Movies    int64 `json:"movies"`
	People    int64 `json:"people"`
	Reviews   int64 `json:"reviews"`
	Followers int64 `json:"followers"`
	Events    int64 `json:"events"`
}

// CollectStats counts rows in the main entity tables.
func CollectStats(db *gorm.DB) (*TableStats, error) {
	stats := &TableStats{}
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&database.User{}, &stats.Users},
		{&database.Movie{}, &stats.Movies},
		{&database.Person{}, &stats.People},
		{&database.Review{}, &stats.Reviews},
		{&database.Follower{}, &stats.Followers},
		{&events.EventRecord{}, &stats.Events},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (m *Module) stats(c *gin.Context) {
	stats, err := CollectStats(m.db)
	if err != nil {
		apperrors.Respond(c, apperrors.NewInternal("failed to collect stats", err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (m *Module) recentEvents(c *gin.Context) {
	recent, err := m.storage.Recent(50)
	if err != nil {
		apperrors.Respond(c, apperrors.NewInternal("failed to load events", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": recent, "count": len(recent)})
}
