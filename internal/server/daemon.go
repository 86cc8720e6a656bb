// Package server runs lorekeepd: it owns the settings store, the config
// watcher, and the API server, and ties their lifetimes to process signals.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lorekeep-ai/lorekeep/internal/api"
	"github.com/lorekeep-ai/lorekeep/internal/settings"
)

// Daemon is the lorekeepd process.
type Daemon struct {
	logger    zerolog.Logger
	store     *settings.Store
	apiServer *api.Server
	startedAt time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	ready    chan struct{}
}

// NewDaemon creates a Daemon reading configuration from cfgPath. An empty
// path searches the default locations.
func NewDaemon(cfgPath string, logger zerolog.Logger) *Daemon {
	if cfgPath == "" {
		cfgPath = settings.FindConfigFile()
	}
	return &Daemon{
		logger: logger,
		store:  settings.NewStore(cfgPath, logger),
		stopCh: make(chan struct{}),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the API listeners are bound.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// Addr returns the API's TCP address once Ready is closed.
func (d *Daemon) Addr() net.Addr {
	if d.apiServer == nil {
		return nil
	}
	return d.apiServer.Addr()
}

// Store exposes the daemon's settings store.
func (d *Daemon) Store() *settings.Store { return d.store }

// Run loads configuration, starts the API server and config watcher, and
// blocks until a signal is received, Stop is called, or the API fails.
func (d *Daemon) Run() error {
	d.startedAt = time.Now()

	// 1. Load configuration.
	cfg, err := d.store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	d.applyLogLevel(cfg)
	d.store.OnReload(d.applyLogLevel)
	if len(cfg.Auth.APIKeys) == 0 && cfg.Server.Listen != "" {
		d.logger.Warn().Msg("no auth.api_keys configured; all TCP API requests will be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Watch the config file.
	if cfg.Reload.HotReload && d.store.Path() != "" {
		if err := d.store.Watch(ctx); err != nil {
			d.logger.Error().Err(err).Msg("config hot reload disabled")
		}
	}

	// 3. Start API server. Listener settings are fixed at startup.
	d.apiServer = api.New(api.Config{
		Listen:         cfg.Server.Listen,
		Socket:         cfg.Server.Socket,
		MaxConnections: cfg.Server.MaxConnections,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, d.store, d.startedAt, d.logger)
	if err := d.apiServer.Listen(); err != nil {
		return fmt.Errorf("start api: %w", err)
	}
	apiErrCh := make(chan error, 1)
	go func() {
		apiErrCh <- d.apiServer.Serve()
	}()
	close(d.ready)

	d.logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("socket", cfg.Server.Socket).
		Str("config", d.store.Path()).
		Msg("lorekeepd started")

	// 4. Wait for signal, stop call, or API error. SIGHUP reloads config.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				d.logger.Info().Msg("SIGHUP received, reloading configuration")
				_ = d.store.Reload()
				continue
			}
			d.logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case <-d.stopCh:
			d.logger.Info().Msg("stop requested, shutting down")
		case err := <-apiErrCh:
			if err != nil {
				d.logger.Error().Err(err).Msg("API server error")
			}
		}
		return d.shutdown(cfg.Server.ShutdownTimeout)
	}
}

func (d *Daemon) applyLogLevel(cfg *settings.Config) {
	if cfg.Log.Level == "" {
		return
	}
	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		d.logger.Warn().Str("level", cfg.Log.Level).Msg("unknown log.level, keeping current level")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

// Stop signals the daemon to shut down. Safe to call more than once and
// from another goroutine.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *Daemon) shutdown(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if d.apiServer != nil {
		if err := d.apiServer.Shutdown(ctx); err != nil {
			d.logger.Error().Err(err).Msg("API shutdown")
		}
	}
	return nil
}
