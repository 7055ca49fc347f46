package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one tool call for the audit log.
//
// CalendarID is usually an e-mail address. LogAttrs reduces it to its
// domain; LogAuditAttrs keeps it verbatim.
type ToolInvocation struct {
	Tool       string
	Session    string
	CalendarID string
	Operation  string

	// AffectedIDs lists the events a destructive tool touched.
	AffectedIDs []string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	TimedOut  bool
	Error     string

	TraceID string
	SpanID  string
}

// Status returns "success", "timeout" or "error".
func (ti *ToolInvocation) Status() string {
	switch {
	case ti.Success:
		return StatusSuccess
	case ti.TimedOut:
		return StatusTimeout
	default:
		return StatusError
	}
}

// LogAttrs returns slog attributes with the calendar reduced to a label.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.String("status", ti.Status()),
	}

	if ti.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar", CalendarLabel(ti.CalendarID)))
	}
	return ti.appendCommon(attrs)
}

// LogAuditAttrs returns slog attributes including the raw calendar ID.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.String("status", ti.Status()),
	}

	if ti.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar_id", ti.CalendarID))
	}
	attrs = ti.appendCommon(attrs)
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return attrs
}

func (ti *ToolInvocation) appendCommon(attrs []slog.Attr) []slog.Attr {
	if ti.Session != "" {
		attrs = append(attrs, slog.String("session", ti.Session))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String("operation", ti.Operation))
	}
	if len(ti.AffectedIDs) > 0 {
		attrs = append(attrs, slog.Any("affected_ids", ti.AffectedIDs))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete when the tool finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithSession sets the conversation session.
func (ti *ToolInvocation) WithSession(session string) *ToolInvocation {
	ti.Session = session
	return ti
}

// WithCalendar sets the target calendar and operation.
func (ti *ToolInvocation) WithCalendar(calendarID, operation string) *ToolInvocation {
	ti.CalendarID = calendarID
	ti.Operation = operation
	return ti
}

// WithAffected records the event IDs a tool changed.
func (ti *ToolInvocation) WithAffected(ids ...string) *ToolInvocation {
	ti.AffectedIDs = append(ti.AffectedIDs, ids...)
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteTimeout marks the invocation as cut off by its deadline.
func (ti *ToolInvocation) CompleteTimeout(err error) *ToolInvocation {
	ti.TimedOut = true
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger writes one structured record per tool invocation.
// A nil *AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger that reduces calendar IDs.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at info level on success and warn level otherwise.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
