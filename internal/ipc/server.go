// Package ipc serves the session descriptor to local UI processes over a
// private unix socket.
package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/exportshell/errors"
	"github.com/grovetools/exportshell/pkg/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Status describes the running shell.
type Status struct {
	State      string    `json:"state"`
	PID        int       `json:"pid"`
	BackendPID int       `json:"backend_pid,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// StatusFunc reports the current shell status.
type StatusFunc func() Status

// Server manages the shell's HTTP server over a Unix socket.
type Server struct {
	logger   *logrus.Entry
	sessions session.Source

	mu       sync.Mutex
	status   StatusFunc
	server   *http.Server
	listener net.Listener
	path     string
}

// New creates a Server answering session queries from src.
func New(src session.Source, logger *logrus.Entry) *Server {
	return &Server{
		logger:   logger,
		sessions: src,
	}
}

// SetStatus installs the /api/status provider.
func (s *Server) SetStatus(fn StatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fn
}

// Listen binds the unix socket with owner-only permissions. A stale socket
// file at the same path is replaced.
func (s *Server) Listen(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.path = socketPath
	s.server = &http.Server{
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Unlock()

	s.logger.WithField("socket", socketPath).Info("Session socket listening")
	return nil
}

// Serve blocks serving requests on the bound socket. It returns nil after Shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.mu.Unlock()

	if server == nil {
		return fmt.Errorf("server is not listening")
	}
	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ListenAndServe binds socketPath and serves until Shutdown.
func (s *Server) ListenAndServe(socketPath string) error {
	if err := s.Listen(socketPath); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown gracefully stops the server and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server, path := s.server, s.path
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	s.logger.Debug("Shutting down session socket")
	err := server.Shutdown(ctx)
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		s.logger.WithError(rmErr).Warn("Failed to remove socket file")
	}
	return err
}

// Handler returns the routing for the session API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/status", s.handleStatus)

	return mux
}

// handleSession returns the current descriptor, or NOT_INITIALIZED until
// startup has published one.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.InvalidInput("method", r.Method))
		return
	}

	desc, err := s.sessions.Session()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errors.ErrCodeNotInitialized) {
			status = http.StatusServiceUnavailable
		} else {
			s.logger.WithError(err).Error("Session query failed")
		}
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(desc)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	statusFn := s.status
	s.mu.Unlock()

	if statusFn == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New(errors.ErrCodeNotInitialized, "status not available"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusFn())
}

// writeError emits the ShellError body for err, falling back to INTERNAL_ERROR.
func writeError(w http.ResponseWriter, status int, err error) {
	shellErr, ok := errors.As(err)
	if !ok {
		shellErr = errors.Wrap(err, errors.ErrCodeInternal, "internal error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(shellErr)
}
