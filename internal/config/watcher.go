package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/registrar/pkg/logging"
)

const (
	// DefaultDebounceInterval is the time to wait before reloading after the
	// last change to config.yaml was detected.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultWatchInterval is the polling interval used when fsnotify is not
	// available for the configuration directory.
	DefaultWatchInterval = 5 * time.Second
)

// WatcherConfig holds configuration for the configuration watcher.
type WatcherConfig struct {
	// ConfigPath is the directory containing config.yaml.
	ConfigPath string

	// WatchInterval is the fallback polling interval when fsnotify is not available.
	WatchInterval time.Duration

	// Debounce delays reloads so that editors writing in several steps
	// trigger a single reload.
	Debounce time.Duration

	// OnChange receives the reloaded configuration.
	OnChange func(Config)

	// OnError receives load failures. The previous configuration stays in
	// effect. When nil, failures are logged.
	OnError func(error)
}

// Watcher reloads config.yaml when it changes. It uses fsnotify on the
// configuration directory and falls back to polling the file's modification
// time when the directory cannot be watched.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	// fsWatcher is nil while polling
	fsWatcher *fsnotify.Watcher

	stopCh  chan struct{}
	running bool

	// polled and lastModTime are only touched by the polling goroutine
	polled      bool
	lastModTime time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.ConfigPath == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config}, nil
}

// Start begins watching for configuration changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ConfigWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(w.stopCh)
		return nil
	}

	if err := watcher.Add(w.config.ConfigPath); err != nil {
		logging.Warn("ConfigWatcher", "Failed to watch directory %s, falling back to polling: %v",
			w.config.ConfigPath, err)
		watcher.Close()
		go w.pollForChanges(w.stopCh)
		return nil
	}
	w.fsWatcher = watcher

	go w.processEvents(w.stopCh, watcher.Events, watcher.Errors)

	logging.Info("ConfigWatcher", "Started watching %s for configuration changes", w.config.ConfigPath)
	return nil
}

// processEvents handles fsnotify events. The channels are passed in so that
// Stop can drop the watcher without racing this goroutine.
func (w *Watcher) processEvents(stopCh <-chan struct{}, eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != configFileName {
		return
	}
	// Editors that save through a rename show up as Create.
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	logging.Debug("ConfigWatcher", "Configuration file changed: %s", event.Name)
	w.triggerReloadDebounced()
}

func (w *Watcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	cfg, err := LoadConfig(w.config.ConfigPath)
	if err != nil {
		if w.config.OnError != nil {
			w.config.OnError(err)
		} else {
			logging.Error("ConfigWatcher", err, "Ignoring invalid configuration update")
		}
		return
	}
	if w.config.OnChange != nil {
		w.config.OnChange(cfg)
	}
}

// pollForChanges implements fallback polling when fsnotify is not available.
func (w *Watcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	w.checkForChanges()

	for {
		select {
		case <-stopCh:
			return

		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("ConfigWatcher", "Configuration change detected via polling")
				w.triggerReloadDebounced()
			}
		}
	}
}

// checkForChanges reports whether config.yaml appeared or was modified
// since the last check. The first call only records the current state.
func (w *Watcher) checkForChanges() bool {
	var modTime time.Time
	if info, err := os.Stat(ConfigFilePath(w.config.ConfigPath)); err == nil {
		modTime = info.ModTime()
	}

	changed := w.polled && !modTime.IsZero() && !modTime.Equal(w.lastModTime)
	w.polled = true
	w.lastModTime = modTime
	return changed
}

// Stop stops the watcher. Pending debounced reloads are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("ConfigWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("ConfigWatcher", "Stopped configuration watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
