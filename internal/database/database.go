// Package database manages the shared relational store connection and
// defines the entity models.
package database

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cinelog/cinelog/internal/config"
	"github.com/cinelog/cinelog/internal/logger"
)

var db *gorm.DB

// Initialize opens the database connection selected by the configuration.
func Initialize(cfg config.DatabaseConfig) error {
	var err error
	switch cfg.Type {
	case "postgres":
		db, err = connectPostgres(cfg)
	case "sqlite":
		db, err = connectSQLite(cfg)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}
	logger.Info("database initialized", "type", cfg.Type)
	return nil
}

func gormConfig(cfg config.DatabaseConfig) *gorm.Config {
	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		// Unique-constraint violations surface as gorm.ErrDuplicatedKey
		// on both drivers.
		TranslateError: true,
	}
}

func connectPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)
	return gorm.Open(postgres.Open(dsn), gormConfig(cfg))
}

func connectSQLite(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	return gorm.Open(sqlite.Open(cfg.DatabasePath), gormConfig(cfg))
}

// GetDB returns the shared database handle.
func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the shared handle. Used by tests to inject an in-memory
// database.
func SetDB(handle *gorm.DB) {
	db = handle
}
