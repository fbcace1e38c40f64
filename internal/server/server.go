// Package server implements the embedded HTTP server: a dual-stack
// socket listener that advertises itself on the local network and runs
// one HTTP/1.0-like request/response cycle per accepted connection,
// dispatching to the first matching response handler.
package server

import (
	"log/slog"
	"sync"

	"recordings/internal/config"
	"recordings/internal/store"
)

// Info identifies the service to clients (Server header, discovery).
type Info struct {
	ServiceName string
	Version     string
}

// Env gives response handlers their collaborators.
type Env struct {
	Store  *store.Store
	Info   Info
	Logger *slog.Logger
}

// Server is the public interface for starting and stopping the socket
// listener and reading basic is-running information. Its observable
// state is {inactive(err), active(port)}; onStateChange fires after
// every transition.
type Server struct {
	cfg    *config.Config
	env    *Env
	types  []HandlerType
	logger *slog.Logger

	onStateChange func()

	mu       sync.Mutex
	listener *socketListener
	err      error
}

// New builds a stopped server. A nil types slice installs the default
// handler list (uuid, contents, change, stream).
func New(cfg *config.Config, st *store.Store, types []HandlerType, logger *slog.Logger) *Server {
	env := &Env{
		Store:  st,
		Info:   Info{ServiceName: cfg.ServiceName, Version: cfg.Version},
		Logger: logger,
	}
	if types == nil {
		types = DefaultHandlerTypes()
	}
	return &Server{cfg: cfg, env: env, types: types, logger: logger}
}

// OnStateChange registers a callback observed by UI layers (e.g. a
// status indicator). Must be set before Start.
func (s *Server) OnStateChange(fn func()) { s.onStateChange = fn }

// Start binds the listening sockets and begins accepting. A failed
// syscall leaves the server inactive with the error captured; Start
// does not return it.
func (s *Server) Start() {
	s.mu.Lock()
	if s.listener == nil {
		l, err := newSocketListener(s.cfg, s.env, s.types, s.logger)
		if err != nil {
			s.err = err
			s.logger.Error("server failed to start", "error", err)
		} else {
			s.listener = l
			s.err = nil
			s.logger.Info("server active", "port", l.port)
		}
	}
	s.mu.Unlock()
	s.notifyStateChange()
}

// Stop unpublishes discovery, closes the listening sockets and cancels
// every open connection. Idempotent.
func (s *Server) Stop() {
	s.mu.Lock()
	l := s.listener
	s.listener = nil
	s.err = nil
	s.mu.Unlock()
	if l != nil {
		l.close()
		s.logger.Info("server stopped")
	}
	s.notifyStateChange()
}

// Running reports whether the listener is active.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Port returns the bound port while active.
func (s *Server) Port() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0, false
	}
	return s.listener.port, true
}

// Err returns the startup error while inactive.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Server) notifyStateChange() {
	if s.onStateChange != nil {
		s.onStateChange()
	}
}
