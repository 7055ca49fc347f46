package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrBackend   = "backend"
	attrCalendar  = "calendar"
	attrTool      = "tool"
	attrModel     = "model"
	attrOutcome   = "outcome"
	attrTokenType = "type"
)

// Metrics provides methods for recording observability metrics.
//
// Every method is safe to call on a nil *Metrics or on a zero Metrics, which
// is what a disabled Provider hands out.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	// Calendar backend metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Model metrics
	modelRequestsTotal   metric.Int64Counter
	modelRequestDuration metric.Float64Histogram
	modelTokensTotal     metric.Int64Counter

	// Orchestrator metrics
	turnsTotal     metric.Int64Counter
	turnIterations metric.Int64Histogram

	detailedLabels bool

	mu         sync.RWMutex
	knownTools map[string]struct{}
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of live conversation sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_operations_total",
		metric.WithDescription("Total number of calendar backend operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_operation_duration_seconds",
		metric.WithDescription("Calendar backend operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operation_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	m.modelRequestsTotal, err = meter.Int64Counter(
		"model_requests_total",
		metric.WithDescription("Total number of language model requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_requests_total counter: %w", err)
	}

	m.modelRequestDuration, err = meter.Float64Histogram(
		"model_request_duration_seconds",
		metric.WithDescription("Language model request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_request_duration_seconds histogram: %w", err)
	}

	m.modelTokensTotal, err = meter.Int64Counter(
		"model_tokens_total",
		metric.WithDescription("Total number of tokens reported by the language model"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_tokens_total counter: %w", err)
	}

	m.turnsTotal, err = meter.Int64Counter(
		"agent_turns_total",
		metric.WithDescription("Total number of user turns handled by the orchestrator"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_turns_total counter: %w", err)
	}

	m.turnIterations, err = meter.Int64Histogram(
		"agent_turn_iterations",
		metric.WithDescription("Model round trips needed to answer one user turn"),
		metric.WithUnit("{iteration}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 8, 10, 15, 20),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_turn_iterations histogram: %w", err)
	}

	return m, nil
}

// SetKnownTools restricts the tool label to the given names. Invocations of
// any other name are recorded as "unknown".
func (m *Metrics) SetKnownTools(names []string) {
	if m == nil {
		return
	}
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	m.mu.Lock()
	m.knownTools = known
	m.mu.Unlock()
}

func (m *Metrics) toolLabel(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ToolLabel(name, m.knownTools)
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCalendarOperation records one call against a calendar backend.
//
// Parameters:
//   - backend: "google" or "memory"
//   - operation: one of the Operation* constants
//   - calendarID: reduced with CalendarLabel, only kept when detailed labels are on
//   - status: "success" or "error"
func (m *Metrics) RecordCalendarOperation(ctx context.Context, backend, operation, calendarID, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrCalendar, CalendarLabel(calendarID)))
	}

	m.calendarOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records a tool invocation with tool name, status, and duration.
// Status is "success", "error" or "timeout".
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, m.toolLabel(toolName)),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordModelRequest records one chat completion round trip.
func (m *Metrics) RecordModelRequest(ctx context.Context, model, status string, duration time.Duration) {
	if m == nil || m.modelRequestsTotal == nil || m.modelRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	}

	m.modelRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.modelRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordModelTokens records token usage reported by the model provider.
func (m *Metrics) RecordModelTokens(ctx context.Context, model string, prompt, completion int) {
	if m == nil || m.modelTokensTotal == nil {
		return
	}

	if prompt > 0 {
		m.modelTokensTotal.Add(ctx, int64(prompt), metric.WithAttributes(
			attribute.String(attrModel, model),
			attribute.String(attrTokenType, "prompt"),
		))
	}
	if completion > 0 {
		m.modelTokensTotal.Add(ctx, int64(completion), metric.WithAttributes(
			attribute.String(attrModel, model),
			attribute.String(attrTokenType, "completion"),
		))
	}
}

// RecordTurn records a completed user turn: its outcome (one of the Outcome*
// constants) and how many model round trips it took.
func (m *Metrics) RecordTurn(ctx context.Context, outcome string, iterations int) {
	if m == nil || m.turnsTotal == nil || m.turnIterations == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.turnsTotal.Add(ctx, 1, attrs)
	m.turnIterations.Record(ctx, int64(iterations), attrs)
}

// IncrementActiveSessions increments the active sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}

	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}

	m.activeSessions.Add(ctx, -1)
}
