package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scanlink/internal/shared"
)

// ServerConfig describes a [ManagedServer].
type ServerConfig struct {
	Addr     string
	Handler  http.Handler
	Logger   *log.Logger
	Timeouts shared.ServerTimeouts
}

// ManagedServer runs an [http.Server] in the background and keeps its failure observable.
//
// A bind failure in [ManagedServer.Start] or a later serve failure marks the server degraded;
// the rest of the process keeps running.
type ManagedServer struct {
	name     string
	server   *http.Server
	logger   *log.Logger
	degraded atomic.Bool
	done     chan struct{}

	mu       sync.Mutex
	listener net.Listener
	err      error
}

// NewManagedServer creates a server named name. Nothing is bound until [ManagedServer.Start].
func NewManagedServer(name string, cfg ServerConfig) *ManagedServer {
	if cfg.Logger == nil {
		cfg.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(cfg.Logger, "server", name)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cfg.Handler,
		ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
		ReadHeaderTimeout: cfg.Timeouts.ReadHeader,
		ReadTimeout:       cfg.Timeouts.Read,
		WriteTimeout:      cfg.Timeouts.Write,
		IdleTimeout:       cfg.Timeouts.Idle,
	}

	return &ManagedServer{
		name:   name,
		server: srv,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start binds the address and serves in a goroutine. A bind failure wraps [shared.ErrBindFailed],
// is logged, and leaves the server degraded.
func (m *ManagedServer) Start() error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		err = fmt.Errorf("%w: %s on %s: %v", shared.ErrBindFailed, m.name, m.server.Addr, err)
		m.fail(err)
		close(m.done)
		return err
	}

	m.mu.Lock()
	m.listener = ln
	m.mu.Unlock()

	m.logger.Info("listening", "addr", ln.Addr().String())

	go func() {
		defer close(m.done)
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.fail(fmt.Errorf("%s stopped: %w", m.name, err))
		}
	}()

	return nil
}

func (m *ManagedServer) fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()

	m.degraded.Store(true)
	m.logger.Error("relay unavailable", "error", err)
}

// Addr returns the bound address, or nil before a successful start.
func (m *ManagedServer) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Degraded reports whether the server failed to start or stopped unexpectedly.
func (m *ManagedServer) Degraded() bool {
	return m.degraded.Load()
}

// Err returns the failure that degraded the server, if any.
func (m *ManagedServer) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Done is closed once the server has stopped serving or failed to start.
func (m *ManagedServer) Done() <-chan struct{} {
	return m.done
}

// Shutdown gracefully stops a running server. It is a no-op for a server that never started.
func (m *ManagedServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	started := m.listener != nil
	m.mu.Unlock()
	if !started {
		return nil
	}

	if err := m.server.Shutdown(ctx); err != nil {
		m.logger.Warn("shutdown error", "error", err)
		return err
	}
	return nil
}
