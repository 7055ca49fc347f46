package server

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/scheduler/internal/calendar"
	"github.com/teemow/scheduler/internal/instrumentation"
	"github.com/teemow/scheduler/internal/tools/common"
)

// ServerContext holds what every session shares.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	backend  calendar.Backend
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	mu       sync.RWMutex
	shutdown bool
}

var _ common.Observer = (*ServerContext)(nil)

// Options configures a ServerContext. Metrics and AuditLogger may be nil.
type Options struct {
	Backend     calendar.Backend
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Backend == nil {
		return nil, errors.New("server context needs a calendar backend")
	}
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		backend: opts.Backend,
		metrics: opts.Metrics,
		audit:   opts.AuditLogger,
	}, nil
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Backend returns the calendar backend.
func (sc *ServerContext) Backend() calendar.Backend {
	return sc.backend
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
