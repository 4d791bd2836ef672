package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
)

// ReloadCallback is called with the freshly parsed config after the file
// on disk changes.
type ReloadCallback func(cfg *Config)

// Watcher hot-reloads the config file when it changes on disk.
type Watcher struct {
	path     string
	logger   *logger.Logger
	callback ReloadCallback
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastLoad time.Time
	mutex    sync.Mutex
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string, logger *logger.Logger, callback ReloadCallback) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:     path,
		logger:   logger,
		callback: callback,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts watching the config file's directory for changes.
func (w *Watcher) Start() error {
	var err error
	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would be lost.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.logger.Info("Watching config file for changes: %s", w.path)

	w.wg.Add(1)
	go w.watchLoop()

	return nil
}

// Stop stops the watcher and waits for the watch loop to exit.
func (w *Watcher) Stop() {
	w.cancel()
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.handleChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error: %v", err)
		}
	}
}

// handleChange reloads the file, debouncing the burst of events an editor
// save produces.
func (w *Watcher) handleChange() {
	w.mutex.Lock()
	if time.Since(w.lastLoad) < time.Second {
		w.mutex.Unlock()
		return
	}
	w.lastLoad = time.Now()
	w.mutex.Unlock()

	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Config changed but reload failed: %v", err)
		return
	}

	w.logger.Info("Config reloaded from %s", w.path)
	if w.callback != nil {
		w.callback(cfg)
	}
}
