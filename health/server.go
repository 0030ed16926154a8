package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server exposes GET /healthz. Degraded reports 200 (the mission is still
// running); unhealthy reports 503.
type Server struct {
	server  *http.Server
	checker Checker
	logger  *slog.Logger
}

// NewServer creates a health server on the given port.
func NewServer(port int, checker Checker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "health")
	}
	s := &Server{
		checker: checker,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := FromChecks(s.checker.Health())

	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("health response encode failed", "error", err)
	}
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server stopped", "error", err)
		}
	}()
	s.logger.Info("health server started", "addr", s.server.Addr)
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
