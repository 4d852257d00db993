package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"forex-dashboard-go/internal/config"
	"go.uber.org/zap"
)

// Server is the dashboard's HTTP server.
type Server struct {
	log        *zap.Logger
	httpServer *http.Server
}

// NewMux registers all dashboard routes on a fresh mux.
func NewMux(h *APIHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /api/stats", h.StatsHandler)
	mux.HandleFunc("GET /api/trades", h.TradesHandler)
	mux.HandleFunc("GET /api/equity-curve", h.EquityCurveHandler)
	mux.HandleFunc("POST /api/upload-trades", h.UploadTradesHandler)
	mux.HandleFunc("GET /api/test", h.TestHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)

	// Static file serving for CSS, JS, etc.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.webRoot+"/static"))))

	// Dashboard page
	mux.HandleFunc("GET /", h.IndexHandler)

	return mux
}

// New creates a Server listening on the configured port.
func New(cfg *config.Server, log *zap.Logger, h *APIHandler) *Server {
	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           requestLogger(log, NewMux(h)),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting web server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
