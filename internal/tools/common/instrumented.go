package common

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/codes"

	"github.com/teemow/scheduler/internal/instrumentation"
)

// Observer supplies the instrumentation a wrapped handler reports to.
// Either method may return nil.
type Observer interface {
	Metrics() *instrumentation.Metrics
	AuditLogger() *instrumentation.AuditLogger
}

type affectedKey struct{}

// affected collects event IDs from a handler that may outlive its deadline.
type affected struct {
	mu  sync.Mutex
	ids []string
}

func (a *affected) add(ids []string) {
	a.mu.Lock()
	a.ids = append(a.ids, ids...)
	a.mu.Unlock()
}

func (a *affected) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.ids...)
}

// RecordAffected adds event IDs changed by the current tool call to its
// audit record. It is a no-op outside an instrumented handler.
func RecordAffected(ctx context.Context, ids ...string) {
	if a, ok := ctx.Value(affectedKey{}).(*affected); ok {
		a.add(ids)
	}
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit
// logging. operation names the calendar operation for the audit record.
//
// Usage:
//
//	handler = common.InstrumentedToolHandler("delete_event", instrumentation.OperationDelete, obs, handler)
func InstrumentedToolHandler(toolName, operation string, obs Observer, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var metrics *instrumentation.Metrics
		var auditLogger *instrumentation.AuditLogger
		if obs != nil {
			metrics = obs.Metrics()
			auditLogger = obs.AuditLogger()
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithSession(SessionFromContext(ctx)).
			WithCalendar(CalendarID(request, ""), operation)
		ids := &affected{}
		ctx = context.WithValue(ctx, affectedKey{}, ids)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case IsTimeout(result):
			status = instrumentation.StatusTimeout
			invocation.CompleteTimeout(nil)
			span.SetStatus(codes.Error, "timeout")
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			invocation.Error = Text(result)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		invocation.WithAffected(ids.snapshot()...)

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}
