package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teemow/scheduler/internal/agent"
	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/config"
	"github.com/teemow/scheduler/internal/export"
	"github.com/teemow/scheduler/internal/google"
	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/llm"
	"github.com/teemow/scheduler/internal/logging"
	"github.com/teemow/scheduler/internal/prompt"
	"github.com/teemow/scheduler/internal/server"
	"github.com/teemow/scheduler/internal/tools"
	"github.com/teemow/scheduler/internal/tools/calendar_tools"
)

// app is everything a command needs, wired from the configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	context  *server.ServerContext
	registry *tools.Registry
	model    agent.Model
	exporter *export.Exporter
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// newApp wires the application. Logs go to logOut; stdio transports must
// pass os.Stderr. needModel is false for commands that never ask the model.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer, needModel bool) (*app, error) {
	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	var (
		metrics *instrumentation.Metrics
		audit   *instrumentation.AuditLogger
	)
	if provider.Enabled() {
		metrics = provider.Metrics()
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	}

	backend, err := newBackend(ctx, cfg, metrics)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Backend:     backend,
		Metrics:     metrics,
		AuditLogger: audit,
	})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	registry := tools.NewRegistry(logger)
	err = calendar_tools.Register(registry, calendar_tools.Deps{
		Backend:           backend,
		Location:          cfg.Location(),
		DefaultCalendarID: cfg.Calendar.DefaultCalendarID,
		Timeout:           cfg.Agent.ToolTimeout,
		BatchTimeout:      cfg.Agent.BatchToolTimeout,
		Observer:          sc,
	})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	metrics.SetKnownTools(registry.Names())

	a := &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		context:  sc,
		registry: registry,
		exporter: export.New(cfg.Export.Dir),
	}

	if needModel {
		if cfg.Model.APIKey == "" {
			_ = a.Close(ctx)
			return nil, errors.New("no model API key: set model.api_key, SCHEDULER_MODEL_API_KEY or GROQ_API_KEY")
		}
		a.model = llm.NewClient(cfg.Model.APIKey, cfg.Model.Name,
			llm.WithBaseURL(cfg.Model.BaseURL),
			llm.WithTimeout(cfg.Model.Timeout),
			llm.WithTemperature(cfg.Model.Temperature),
			llm.WithMaxTokens(cfg.Model.MaxTokens),
			llm.WithMetrics(metrics),
			llm.WithLogger(logger),
		)
	}
	return a, nil
}

// newBackend builds the configured calendar backend wrapped with
// instrumentation.
func newBackend(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics) (calendar.Backend, error) {
	switch cfg.Calendar.Backend {
	case config.BackendMemory:
		var (
			m   *calendar.MemoryBackend
			err error
		)
		if cfg.Calendar.SeedFile != "" {
			if m, err = calendar.LoadSeedFile(cfg.Calendar.SeedFile); err != nil {
				return nil, err
			}
		} else {
			m = calendar.NewMemoryBackend()
		}
		return calendar.Instrument(m, config.BackendMemory, metrics), nil

	case config.BackendGoogle:
		conf, err := google.NewOAuthConfig(cfg.Calendar.GoogleClientID, cfg.Calendar.GoogleClientSecret)
		if err != nil {
			return nil, fmt.Errorf("google calendar backend: %w", err)
		}
		client, err := calendar.NewGoogleClient(ctx, cfg.Calendar.Account, conf, google.NewFileTokenProvider(cfg.Calendar.TokenDir))
		if err != nil {
			return nil, err
		}
		return calendar.Instrument(client, config.BackendGoogle, metrics), nil
	}
	return nil, fmt.Errorf("unknown calendar backend %q", cfg.Calendar.Backend)
}

// newOrchestrator returns a fresh orchestrator for sessionID.
func (a *app) newOrchestrator(sessionID string) (*agent.Orchestrator, error) {
	return agent.New(agent.Config{
		Model:          a.model,
		Tools:          a.registry,
		Prompt:         prompt.Builder{DefaultCalendar: a.cfg.Calendar.DefaultCalendarID},
		Location:       a.cfg.Location(),
		MaxIterations:  a.cfg.Agent.MaxIterations,
		MemoryCapacity: a.cfg.Agent.MemoryCapacity,
		SessionID:      sessionID,
		Metrics:        a.context.Metrics(),
		Logger:         a.logger,
	})
}

// Close releases the server context and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	err := a.context.Shutdown()
	if perr := a.provider.Shutdown(ctx); perr != nil && err == nil {
		err = perr
	}
	return err
}

// stderr is where diagnostics go when stdout carries a protocol.
var stderr io.Writer = os.Stderr
