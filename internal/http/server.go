// README: HTTP server wrapper; serve and drain are driven by the caller's errgroup.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const ShutdownTimeout = 10 * time.Second

type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// ListenAndServe blocks until the listener fails or Shutdown is called;
// a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("http server shutting down")
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
