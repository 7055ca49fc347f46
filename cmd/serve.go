package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/scheduler/internal/config"
	"github.com/teemow/scheduler/internal/logging"
	"github.com/teemow/scheduler/internal/resources"
	"github.com/teemow/scheduler/internal/server"
)

// Transports supported by serve.
const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

func newServeCmd() *cobra.Command {
	var (
		transport      string
		addr           string
		metricsAddr    string
		metricsEnabled bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler service",
		Long: `Start the scheduler as a long-running service.

Supports two transports:
  - http: answers POST /query with the scheduling assistant (default).
    Each session_id gets its own conversation memory; idle sessions expire
    after server.session_timeout. Health endpoints are /healthz and /readyz,
    Prometheus metrics are served on a separate port.
  - stdio: serves the calendar tools as an MCP server on stdin/stdout so
    another assistant can call them directly. No model is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("metrics-enabled") {
				cfg.Server.MetricsEnabled = metricsEnabled
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			switch transport {
			case transportHTTP:
				return runHTTPServer(ctx, cfg)
			case transportStdio:
				return runStdioServer(ctx, cfg)
			default:
				return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", transport, transportHTTP, transportStdio)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP server address. Overrides server.addr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Overrides server.metrics_addr")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on a dedicated port. Overrides server.metrics_enabled")

	return cmd
}

func runHTTPServer(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, os.Stderr, true)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			a.logger.Warn("error during shutdown", logging.Err(err))
		}
	}()

	sessions, err := server.NewSessionManager(server.SessionManagerConfig{
		Factory: a.newOrchestrator,
		Timeout: cfg.Server.SessionTimeout,
		Metrics: a.context.Metrics(),
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}
	defer sessions.Stop()

	if cfg.Server.MetricsEnabled && a.provider.ServesPrometheus() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     cfg.Server.MetricsAddr,
			Provider: a.provider,
			Logger:   a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		metricsDone := make(chan struct{})
		go func() {
			defer close(metricsDone)
			if err := metricsServer.Run(metricsCtx); err != nil {
				a.logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			stopMetrics()
			<-metricsDone
		}()
	}

	health := server.NewHealthChecker(a.context, sessions)
	mux := http.NewServeMux()
	server.NewQueryHandler(sessions, a.exporter, a.logger).RegisterEndpoints(mux)
	health.RegisterHealthEndpoints(mux)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.WithHTTPMetrics(mux, a.context.Metrics(), "/query", "/healthz", "/readyz", "/healthz/detailed"),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		a.logger.Info("starting query server",
			"addr", cfg.Server.Addr,
			"backend", cfg.Calendar.Backend,
			"model", cfg.Model.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	a.logger.Info("HTTP server gracefully stopped")
	return nil
}

func runStdioServer(ctx context.Context, cfg *config.Config) error {
	// stdout carries the protocol
	a, err := newApp(ctx, cfg, stderr, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close(context.Background())
	}()

	mcpSrv := mcpserver.NewMCPServer("scheduler", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	mcpSrv.AddTools(a.registry.ServerTools()...)

	err = resources.RegisterCalendarResources(mcpSrv, resources.Source{
		Backend:           a.context.Backend(),
		Location:          cfg.Location(),
		DefaultCalendarID: cfg.Calendar.DefaultCalendarID,
	})
	if err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
