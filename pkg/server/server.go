package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/ladder/pkg/config"
	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/telemetry/health"
	"mercator-hq/ladder/pkg/telemetry/metrics"
	"mercator-hq/ladder/pkg/telemetry/tracing"
)

// Evaluator is the part of the engine the server needs.
type Evaluator interface {
	Evaluate(ctx context.Context, name string, input interface{}) (*engine.Decision, error)
	Ladder(name string) (*engine.Ladder, bool)
	Ladders() []engine.LadderInfo
}

// Options carries optional collaborators. Nil fields are disabled.
type Options struct {
	Logger      *slog.Logger
	Metrics     *metrics.Collector
	MetricsPath string
	Tracer      *tracing.Tracer
	Health      *health.Checker
	Version     health.VersionInfo
}

// Server serves ladder evaluations over HTTP.
type Server struct {
	config     *config.ServerConfig
	evaluator  Evaluator
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server

	// limit is shared by every API route.
	limit func(http.Handler) http.Handler

	mu        sync.Mutex
	isRunning bool
}

// NewServer creates a server. It does not listen until Start or Serve.
func NewServer(cfg *config.ServerConfig, evaluator Evaluator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	if opts.Health == nil {
		opts.Health = health.New(0)
	}

	s := &Server{
		config:    cfg,
		evaluator: evaluator,
		opts:      opts,
		logger:    logger.With("component", "server"),
	}
	s.limit = rateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst,
		trustedProxies(cfg.RateLimit.TrustedProxies, s.logger))
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	if cfg.TLS.Enabled {
		s.httpServer.TLSConfig = &tls.Config{MinVersion: tlsVersion(cfg.TLS.MinVersion)}
	}
	return s
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// serve runs the HTTP server on ln, over TLS when configured.
func (s *Server) serve(ln net.Listener) error {
	if s.config.TLS.Enabled {
		return s.httpServer.ServeTLS(ln, s.config.TLS.CertFile, s.config.TLS.KeyFile)
	}
	return s.httpServer.Serve(ln)
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully within
// the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting ladder server", "address", ln.Addr().String(), "tls", s.config.TLS.Enabled)
		if err := s.serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("ladder server stopped")
	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "evaluate", "POST /v1/ladders/{name}/evaluate", http.HandlerFunc(s.handleEvaluate))
	s.route(mux, "ladder", "GET /v1/ladders/{name}", http.HandlerFunc(s.handleGetLadder))
	s.route(mux, "ladders", "GET /v1/ladders", http.HandlerFunc(s.handleListLadders))

	mux.Handle("GET /healthz", s.opts.Health.LivenessHandler())
	mux.Handle("GET /readyz", s.opts.Health.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(s.opts.Version))

	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		mux.Handle("GET "+s.opts.MetricsPath, s.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = maxBytesMiddleware(s.config.MaxBodyBytes)(handler)
	handler = requestIDMiddleware(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	return handler
}

// route registers an API handler with authentication, tracing and
// per-route metrics.
func (s *Server) route(mux *http.ServeMux, name, pattern string, h http.Handler) {
	h = apiKeyMiddleware(s.config.APIKeys, s.logger)(h)
	h = s.limit(h)
	h = metricsMiddleware(name, s.opts.Metrics)(h)
	h = s.opts.Tracer.Middleware(name, h)
	mux.Handle(pattern, h)
}
