// Package server exposes the monitor's channel estimates over HTTP and a
// websocket push feed, so a browser dashboard can watch reports arrive
// without polling the report directory.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
)

// Server is the HTTP server backing the estimator's web dashboard.
type Server struct {
	mux       *http.ServeMux
	handlers  *Handlers
	addr      string
	staticDir string
}

// NewServer wires routes for a set of Handlers.
func NewServer(addr string, handlers *Handlers, staticDir string) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		handlers:  handlers,
		addr:      addr,
		staticDir: staticDir,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.handlers.HandleStatus)
	s.mux.HandleFunc("/api/devices", s.handlers.HandleDevices)
	s.mux.HandleFunc("/api/reports/", s.handlers.HandleReport)
	s.mux.HandleFunc("/ws", s.handlers.HandleWebSocket)

	if s.staticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
}

// ListenAndServe starts the HTTP server, returning when ctx is cancelled or
// the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{Addr: s.addr, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	log.Info("estimator dashboard listening", "addr", s.addr)
	select {
	case <-ctx.Done():
		return httpSrv.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	}
}
