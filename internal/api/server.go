// Package api serves the lorekeepd HTTP API: the read-only settings view,
// status, health, and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/lorekeep-ai/lorekeep/internal/settings"
	"github.com/lorekeep-ai/lorekeep/pkg/protocol"
)

var chmodSocket = os.Chmod

// Config holds listener settings passed to New.
type Config struct {
	Listen         string // TCP address; API key auth applies. Empty disables TCP.
	Socket         string // Unix socket path; trusted, no API key. Empty disables.
	MaxConnections int    // Concurrent TCP connections, 0 = unlimited.
	MetricsEnabled bool
	MetricsPath    string
}

// Server serves the lorekeepd API over TCP and an optional Unix socket.
type Server struct {
	cfg       Config
	provider  settings.Provider
	startedAt time.Time
	logger    zerolog.Logger
	metrics   *metrics

	tcpServer  *http.Server
	unixServer *http.Server

	mu     sync.Mutex
	tcpLn  net.Listener
	unixLn net.Listener
}

// New creates an API server reading configuration from provider.
func New(cfg Config, provider settings.Provider, startedAt time.Time, logger zerolog.Logger) *Server {
	if provider == nil {
		provider = settings.Static(nil)
	}
	s := &Server{
		cfg:       cfg,
		provider:  provider,
		startedAt: startedAt,
		logger:    logger.With().Str("component", "api").Logger(),
		metrics:   newMetrics(),
	}
	s.tcpServer = &http.Server{
		Handler:           s.routes(true),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.unixServer = &http.Server{
		Handler:           s.routes(false),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the authenticated (TCP) handler.
func (s *Server) Handler() http.Handler { return s.tcpServer.Handler }

// LocalHandler returns the handler served on the Unix socket.
func (s *Server) LocalHandler() http.Handler { return s.unixServer.Handler }

func (s *Server) routes(authenticated bool) http.Handler {
	v1 := func(h http.Handler) http.Handler { return h }
	if authenticated {
		auth := &apiKeyAuth{provider: s.provider, logger: s.logger}
		v1 = auth.wrap
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+protocol.RouteSettings, v1(NewSettingsHandler(s.provider, s.logger)))
	mux.Handle("GET "+protocol.RouteStatus, v1(http.HandlerFunc(s.handleStatus)))
	mux.HandleFunc("GET "+protocol.RouteHealth, s.handleHealth)
	if s.cfg.MetricsEnabled {
		path := s.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, s.metrics.handler())
	}

	// observe sits outside recover so panics are still logged and counted.
	return requestIDMiddleware(s.observeMiddleware(s.recoverMiddleware(securityHeaders(mux))))
}

// Listen binds the configured listeners without serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Listen != "" {
		ln, err := net.Listen("tcp", s.cfg.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
		}
		if s.cfg.MaxConnections > 0 {
			ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
		}
		s.tcpLn = ln
	}

	if s.cfg.Socket != "" {
		if err := os.MkdirAll(filepath.Dir(s.cfg.Socket), 0700); err != nil {
			s.closeListeners()
			return fmt.Errorf("create socket dir: %w", err)
		}
		os.Remove(s.cfg.Socket)
		ln, err := net.Listen("unix", s.cfg.Socket)
		if err != nil {
			s.closeListeners()
			return fmt.Errorf("listen %s: %w", s.cfg.Socket, err)
		}
		s.unixLn = ln
		// The socket skips API key auth; it must not be reachable by other users.
		if err := chmodSocket(s.cfg.Socket, 0600); err != nil {
			s.closeListeners()
			os.Remove(s.cfg.Socket)
			return fmt.Errorf("chmod %s: %w", s.cfg.Socket, err)
		}
	}

	if s.tcpLn == nil && s.unixLn == nil {
		return errors.New("no listener configured")
	}
	return nil
}

func (s *Server) closeListeners() {
	if s.tcpLn != nil {
		s.tcpLn.Close()
		s.tcpLn = nil
	}
	if s.unixLn != nil {
		s.unixLn.Close()
		s.unixLn = nil
	}
}

// Addr returns the bound TCP address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tcpLn == nil {
		return nil
	}
	return s.tcpLn.Addr()
}

// Serve serves on the listeners bound by Listen. Blocks until Shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	tcpLn, unixLn := s.tcpLn, s.unixLn
	s.mu.Unlock()

	var g errgroup.Group
	if tcpLn != nil {
		s.logger.Info().Str("listen", tcpLn.Addr().String()).Msg("API listening")
		g.Go(func() error { return ignoreClosed(s.tcpServer.Serve(tcpLn)) })
	}
	if unixLn != nil {
		s.logger.Info().Str("socket", s.cfg.Socket).Msg("API listening on socket")
		g.Go(func() error { return ignoreClosed(s.unixServer.Serve(unixLn)) })
	}
	return g.Wait()
}

// Start binds and serves. Blocks until Shutdown or error.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	err := errors.Join(s.tcpServer.Shutdown(ctx), s.unixServer.Shutdown(ctx))
	if s.cfg.Socket != "" {
		os.Remove(s.cfg.Socket)
	}
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_, err := s.provider.Snapshot()
	resp := protocol.StatusResponse{
		Status:       "ok",
		Uptime:       time.Since(s.startedAt).Truncate(time.Second).String(),
		StartedAt:    s.startedAt,
		ConfigLoaded: err == nil,
	}
	if err != nil {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
