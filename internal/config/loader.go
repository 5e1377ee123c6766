package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Log and continue with old config.
						continue
					}
					l.mu.Lock()
					l.current = cfg
					callbacks := make([]func(*Config), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.Unlock()
					for _, fn := range callbacks {
						fn(cfg)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills zero-valued policy knobs with their defaults.
// Exposed so callers constructing a Config in code (tests, API overrides)
// get the same baseline as a file load.
func ApplyDefaults(cfg *Config) {
	if cfg.Window.Mode == "" {
		cfg.Window.Mode = "animation"
	}
	if cfg.Window.DurationMinutes == 0 {
		if cfg.Window.Mode == "daily" {
			cfg.Window.DurationMinutes = 3 * 24 * 60
		} else {
			cfg.Window.DurationMinutes = 90
		}
	}
	if cfg.Route.Curvature == 0 {
		cfg.Route.Curvature = 0.15
	}
	if cfg.Route.LongArcDeg == 0 {
		cfg.Route.LongArcDeg = 5.0
	}
	if cfg.Snapshots.Min == 0 {
		cfg.Snapshots.Min = 3
	}
	if cfg.Snapshots.PerHour == 0 {
		if cfg.Window.Mode == "daily" {
			cfg.Snapshots.PerHour = 0.5
		} else {
			cfg.Snapshots.PerHour = 2
		}
	}
	if cfg.Loss.ProcessingPct == 0 {
		cfg.Loss.ProcessingPct = 5
	}
	if cfg.Spoilage.ChancePct == 0 {
		cfg.Spoilage.ChancePct = 10
	}
	if cfg.Predictions.PerWarehouse == 0 {
		cfg.Predictions.PerWarehouse = 1
	}
	if cfg.Predictions.HorizonHours == 0 {
		cfg.Predictions.HorizonHours = 24
	}
	if cfg.Lanes.FarmToProcessing == 0 {
		cfg.Lanes.FarmToProcessing = 3
	}
	if cfg.Lanes.ProcessingToWarehouse == 0 {
		cfg.Lanes.ProcessingToWarehouse = 2
	}
	if cfg.Lanes.WarehouseToNGO == 0 {
		cfg.Lanes.WarehouseToNGO = 2
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 4
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 64
	}
	if cfg.Engine.JobTimeoutMs == 0 {
		cfg.Engine.JobTimeoutMs = 30000
	}
}
