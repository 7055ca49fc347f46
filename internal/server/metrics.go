package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/logging"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout bounds reading a scrape request's headers.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout bounds writing a scrape response.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind to. Empty means DefaultMetricsAddr.
	Addr string

	// Provider must be enabled and export to Prometheus.
	Provider *instrumentation.Provider

	// Gatherer is scraped on /metrics. Nil means the default registry, which
	// is where the OpenTelemetry Prometheus exporter registers.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// MetricsServer serves Prometheus metrics on a dedicated port, apart from
// the query API.
type MetricsServer struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewMetricsServer validates config and returns a server that is not yet
// listening.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	switch {
	case config.Provider == nil:
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	case !config.Provider.Enabled():
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	case !config.Provider.ServesPrometheus():
		return nil, fmt.Errorf("metrics exporter is not prometheus")
	}

	s := &MetricsServer{
		addr:     config.Addr,
		gatherer: config.Gatherer,
		logger:   config.Logger,
	}
	if s.addr == "" {
		s.addr = DefaultMetricsAddr
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Handler returns the mux served on the metrics port.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully. A listen error is returned immediately.
func (s *MetricsServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *MetricsServer) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
	}

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ln)
	}()
	s.logger.Info("metrics server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("metrics server shutdown", logging.Err(err))
		return err
	}
	<-served
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}
