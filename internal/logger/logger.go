// Package logger provides the application-wide structured logger.
// It wraps hashicorp/go-hclog behind package-level helpers so callers
// log as logger.Info("msg", "key", value) without carrying a logger around.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	mu   sync.RWMutex
	root = newRoot("cinelog", os.Getenv("CINELOG_LOG_LEVEL"), os.Getenv("CINELOG_LOG_FORMAT"))
)

func newRoot(name, level, format string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      parseLevel(level),
		JSONFormat: strings.EqualFold(format, "json"),
		Output:     os.Stdout,
	})
}

func parseLevel(level string) hclog.Level {
	if level == "" {
		return hclog.Info
	}
	if l := hclog.LevelFromString(level); l != hclog.NoLevel {
		return l
	}
	return hclog.Info
}

// Configure replaces the root logger. Called once at startup after the
// configuration has been loaded.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot("cinelog", level, format)
}

// Named returns a sub-logger for a component, e.g. logger.Named("catalog").
func Named(name string) hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(name)
}

// Debug logs at debug level with optional key-value pairs.
func Debug(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Debug(msg, args...)
}

// Info logs at info level with optional key-value pairs.
func Info(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Info(msg, args...)
}

// Warn logs at warn level with optional key-value pairs.
func Warn(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Warn(msg, args...)
}

// Error logs at error level with optional key-value pairs.
func Error(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Error(msg, args...)
}
