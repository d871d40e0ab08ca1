package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// ConfigWatcher reloads configuration when files under the config directory
// change. Only the development environment watches the filesystem.
type ConfigWatcher struct {
	config    *Config
	loader    *Loader
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewConfigWatcher creates a watcher that reloads through loader.
func NewConfigWatcher(initial *Config, loader *Loader, logger *zap.Logger) (*ConfigWatcher, error) {
	w := &ConfigWatcher{
		config: initial,
		loader: loader,
		logger: logger.Named("config"),
		stopCh: make(chan struct{}),
	}

	if initial.Environment != Development {
		w.logger.Info("configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)))
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchConfigFiles(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config files: %w", err)
	}

	go w.watchLoop()

	w.logger.Info("configuration hot reloading enabled", zap.String("dir", loader.basePath))
	return w, nil
}

func (w *ConfigWatcher) watchConfigFiles() error {
	info, err := os.Stat(w.loader.basePath)
	if os.IsNotExist(err) {
		w.logger.Debug("config directory missing, nothing to watch", zap.String("dir", w.loader.basePath))
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.loader.basePath)
	}
	// Editors replace files on save, so watch the directory rather than each file.
	return w.watcher.Add(w.loader.basePath)
}

func (w *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}

			w.logger.Debug("configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// reload loads the configuration again and notifies callbacks when it changed.
// An invalid file keeps the current configuration in place.
func (w *ConfigWatcher) reload() {
	next, err := w.loader.Load()
	if err != nil {
		w.logger.Error("configuration reload failed, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.config
	if configsEqual(prev, next) {
		w.mu.Unlock()
		w.logger.Debug("configuration unchanged after reload")
		return
	}
	w.config = next
	callbacks := append(([]func(*Config))(nil), w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded",
		zap.Strings("sources", next.LoadedFrom),
		zap.Int("callbacks", len(callbacks)))

	for i, cb := range callbacks {
		w.notify(i, cb, next)
	}
}

func (w *ConfigWatcher) notify(idx int, cb func(*Config), cfg *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("configuration callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r))
		}
	}()
	cb(cfg)
}

// OnChange registers a callback run after each successful reload.
func (w *ConfigWatcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// GetConfig returns the current configuration.
func (w *ConfigWatcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops watching. It is safe to call more than once.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func configsEqual(a, b *Config) bool {
	ac, bc := *a, *b
	ac.LoadedFrom, bc.LoadedFrom = nil, nil
	return reflect.DeepEqual(ac, bc)
}

func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
