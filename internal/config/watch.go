package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/cinelog/cinelog/internal/logger"
)

// WatchFile reloads the configuration whenever the config file changes.
// It watches the parent directory because editors typically replace the
// file via rename. The returned stop function releases the watcher.
func (m *Manager) WatchFile() (stop func(), err error) {
	path := m.Path()
	if path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !sameFile(event.Name, path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := m.Load(path); err != nil {
					logger.Warn("config reload failed, keeping previous configuration", "error", err)
					continue
				}
				logger.Info("configuration reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}

func sameFile(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
