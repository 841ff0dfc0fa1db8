// Package config holds the layered application configuration: built-in
// defaults, then an optional YAML/JSON file, then environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cinelog/cinelog/internal/logger"
)

// DefaultAvatarURL is assigned to every profile created without an
// explicit avatar.
const DefaultAvatarURL = "https://img.icons8.com/?size=100&id=tZuAOUGm9AuS&format=png&color=000000"

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Catalog  CatalogConfig  `yaml:"catalog" json:"catalog"`
	Ingest   IngestConfig   `yaml:"ingest" json:"ingest"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"CINELOG_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" json:"port" env:"CINELOG_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"CINELOG_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"CINELOG_WRITE_TIMEOUT" default:"30s"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"CINELOG_ENABLE_CORS" default:"true"`
}

// DatabaseConfig holds relational store settings. SQLite is the default;
// Postgres is selected with type=postgres.
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	Host         string `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port         int    `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username     string `yaml:"username" json:"username" env:"POSTGRES_USER" default:"cinelog"`
	Password     string `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database     string `yaml:"database" json:"database" env:"POSTGRES_DB" default:"cinelog"`
	DataDir      string `yaml:"data_dir" json:"data_dir" env:"CINELOG_DATA_DIR" default:"./data"`
	DatabasePath string `yaml:"database_path" json:"database_path" env:"CINELOG_DATABASE_PATH"`
	LogQueries   bool   `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// CatalogConfig holds the presentation page sizes. The browse page size is
// an arbitrary knob inherited from the original UI layout.
type CatalogConfig struct {
	BrowsePageSize int `yaml:"browse_page_size" json:"browse_page_size" env:"CINELOG_BROWSE_PAGE_SIZE" default:"104"`
	SearchPageSize int `yaml:"search_page_size" json:"search_page_size" env:"CINELOG_SEARCH_PAGE_SIZE" default:"100"`
	ReviewPageSize int `yaml:"review_page_size" json:"review_page_size" env:"CINELOG_REVIEW_PAGE_SIZE" default:"10"`
	FeedPageSize   int `yaml:"feed_page_size" json:"feed_page_size" env:"CINELOG_FEED_PAGE_SIZE" default:"30"`
}

// IngestConfig holds settings for the offline catalog ingestion tool.
type IngestConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url" env:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	ImageBaseURL string        `yaml:"image_base_url" json:"image_base_url" env:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p/w500"`
	APIKey       string        `yaml:"api_key" json:"-" env:"TMDB_API_KEY"`
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay" env:"CINELOG_INGEST_DELAY" default:"250ms"`
	MovieTarget  int           `yaml:"movie_target" json:"movie_target" env:"CINELOG_INGEST_TARGET" default:"10000"`
	CastLimit    int           `yaml:"cast_limit" json:"cast_limit" env:"CINELOG_INGEST_CAST_LIMIT" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"CINELOG_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"CINELOG_LOG_FORMAT" default:"text"`
}

// Watcher is called when the configuration is reloaded.
type Watcher func(old, updated *Config)

// Manager owns the current configuration and its reload lifecycle.
type Manager struct {
	config     *Config
	configPath string
	watchers   []Watcher
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	once          sync.Once
)

// GetManager returns the global configuration manager.
func GetManager() *Manager {
	once.Do(func() {
		globalManager = NewManager()
	})
	return globalManager
}

// NewManager creates a manager holding the default configuration.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	if err := applyEnv(reflect.ValueOf(cfg).Elem(), false); err != nil {
		// Defaults are literals in struct tags; a failure here is a
		// programming error surfaced on first load.
		panic(fmt.Sprintf("config defaults invalid: %v", err))
	}
	return cfg
}

// Load reads configuration from path (may be empty) and the environment.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := *m.config
	m.configPath = path

	updated := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFile(path, updated); err != nil {
				return fmt.Errorf("failed to load config file: %w", err)
			}
			logger.Info("configuration loaded from file", "path", path)
		}
	}
	if err := applyEnv(reflect.ValueOf(updated).Elem(), true); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := validate(updated); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	applyDerived(updated)

	m.config = updated
	for _, w := range m.watchers {
		go w(&old, updated)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := *m.config
	return &cp
}

// AddWatcher registers a callback invoked after each successful reload.
func (m *Manager) AddWatcher(w Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, w)
}

// Path returns the configured file path, if any.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", filepath.Ext(path))
	}
}

// applyEnv walks the struct and sets fields from env/default tags. When
// readEnv is false only the default tags are applied.
func applyEnv(v reflect.Value, readEnv bool) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := applyEnv(field, readEnv); err != nil {
				return err
			}
			continue
		}

		value := ""
		if readEnv {
			if envTag := fieldType.Tag.Get("env"); envTag != "" {
				value = os.Getenv(envTag)
			}
		}
		if value == "" && !readEnv {
			value = fieldType.Tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	for name, size := range map[string]int{
		"browse_page_size": cfg.Catalog.BrowsePageSize,
		"search_page_size": cfg.Catalog.SearchPageSize,
		"review_page_size": cfg.Catalog.ReviewPageSize,
		"feed_page_size":   cfg.Catalog.FeedPageSize,
	} {
		if size < 1 {
			return fmt.Errorf("invalid %s: %d", name, size)
		}
	}
	return nil
}

func applyDerived(cfg *Config) {
	if cfg.Database.DatabasePath == "" && cfg.Database.Type == "sqlite" {
		cfg.Database.DatabasePath = filepath.Join(cfg.Database.DataDir, "cinelog.db")
	}
}

// Get returns the current global configuration.
func Get() *Config {
	return GetManager().Get()
}

// Load loads the global configuration from the given path.
func Load(path string) error {
	return GetManager().Load(path)
}

// AddWatcher registers a global configuration watcher.
func AddWatcher(w Watcher) {
	GetManager().AddWatcher(w)
}
