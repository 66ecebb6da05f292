// Package http serves the prediction form, the prediction endpoints and the
// informational news page.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server HTTP server
type Server struct {
	server *http.Server
	config ServerConfig
	log    *zap.Logger
}

// ServerConfig server configuration
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// DefaultServerConfig returns the defaults used when config.yaml omits the
// http section.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8501,
		Timeout:        30 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// NewHandler builds the routed and wrapped handler without binding a port.
func NewHandler(config ServerConfig, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	RegisterHandlers(mux)
	RegisterLiveHandlers(mux, config.AllowedOrigins)
	mux.Handle("GET /metrics", promhttp.Handler())

	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultServerConfig().MaxBodyBytes
	}

	chain := Chain(
		RecoveryMiddleware(log),               // 1. catches panics, runs first
		LoggerMiddleware(log),                 // 2. request id + access log
		SecurityHeadersMiddleware,             // 3.
		CORSMiddleware(config.AllowedOrigins), // 4.
		RequestSizeMiddleware(maxBody),        // 5.
		TimeoutMiddleware(config.Timeout),     // 6. skipped for websocket upgrades
	)

	return chain(mux)
}

// NewServer creates the HTTP server.
func NewServer(config ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	SetLogger(log)

	return &Server{
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			Handler:     NewHandler(config, log),
			ReadTimeout: config.Timeout,
			IdleTimeout: 120 * time.Second,
		},
		config: config,
		log:    log,
	}
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.log.Info("starting http server", zap.String("addr", s.server.Addr))
	s.log.Info("websocket endpoint", zap.String("url", fmt.Sprintf("ws://localhost%s/api/ws/predict", s.server.Addr)))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.log.Info("shutting down http server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}
