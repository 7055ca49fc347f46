// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the scheduler.
//
// # Metrics
//
// HTTP:
//   - http_requests_total, http_request_duration_seconds
//   - active_sessions: live conversation sessions
//
// Calendar backend:
//   - calendar_operations_total, calendar_operation_duration_seconds
//     by backend, operation and status
//
// Tools:
//   - tool_invocations_total, tool_duration_seconds by tool and status
//     (success, error, timeout)
//
// Language model:
//   - model_requests_total, model_request_duration_seconds, model_tokens_total
//
// Orchestrator:
//   - agent_turns_total by outcome, agent_turn_iterations
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>), calendar backend calls
// (calendar.<operation>) and model requests (llm.chat).
//
// # Configuration
//
// Instrumentation is configured from the environment:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - METRICS_DETAILED_LABELS, AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	m := provider.Metrics()
//	m.RecordCalendarOperation(ctx, instrumentation.BackendGoogle,
//		instrumentation.OperationList, "primary", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
