package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Provider returns the current configuration snapshot. Snapshots are shared
// between goroutines and must be treated as read-only.
type Provider interface {
	Snapshot() (*Config, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (*Config, error)

func (f ProviderFunc) Snapshot() (*Config, error) { return f() }

// Static returns a Provider that always yields cfg.
func Static(cfg *Config) Provider {
	return ProviderFunc(func() (*Config, error) {
		if cfg == nil {
			return nil, &Error{Kind: KindNotLoaded}
		}
		return cfg, nil
	})
}

// debounceWindow collects bursts of editor writes into one reload.
const debounceWindow = 500 * time.Millisecond

// Store holds the active configuration and swaps it atomically on reload.
type Store struct {
	path    string
	current atomic.Pointer[Config]
	load    func(string) (*Config, error)
	logger  zerolog.Logger

	onReload func(*Config)
}

// NewStore creates a Store reading from path (empty means the default search
// path). Call Load before serving.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		load:   Load,
		logger: logger.With().Str("component", "settings").Logger(),
	}
}

// OnReload registers fn to run after each successful reload, with the new
// snapshot. Call before Watch.
func (s *Store) OnReload(fn func(*Config)) { s.onReload = fn }

// Path returns the config file the store reads from.
func (s *Store) Path() string { return s.path }

// Snapshot implements Provider.
func (s *Store) Snapshot() (*Config, error) {
	cfg := s.current.Load()
	if cfg == nil {
		return nil, &Error{Kind: KindNotLoaded, Err: fmt.Errorf("configuration has not been loaded")}
	}
	return cfg, nil
}

// Load performs the initial load. The store stays empty on error.
func (s *Store) Load() (*Config, error) {
	cfg, err := s.load(s.path)
	if err != nil {
		return nil, err
	}
	s.current.Store(cfg)
	s.logger.Info().Str("path", s.path).Msg("configuration loaded")
	return cfg, nil
}

// Reload re-reads the config file. On failure the previous snapshot stays
// active and the error is returned.
func (s *Store) Reload() error {
	cfg, err := s.load(s.path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("config reload failed, keeping previous configuration")
		return err
	}
	s.current.Store(cfg)
	s.logger.Info().Str("path", s.path).Msg("configuration reloaded")
	if s.onReload != nil {
		s.onReload(cfg)
	}
	return nil
}

// Watch reloads the store whenever its config file changes. The directory is
// watched rather than the file so editors that replace the file on save are
// still seen. Watch returns once the watcher is running; it stops when ctx is
// done.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return fmt.Errorf("watch config: no config file path")
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config: %w", err)
	}

	go s.watchLoop(ctx, watcher, abs)

	s.logger.Info().Str("path", abs).Msg("watching configuration for changes")
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string) {
	defer watcher.Close()

	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				if ctx.Err() != nil {
					return
				}
				_ = s.Reload()
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
