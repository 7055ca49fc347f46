// Package server provides the shared server context, per-session
// orchestrators, and the HTTP surface of the scheduler.
//
// # Key Components
//
// ServerContext holds the calendar backend and the instrumentation every
// tool call reports to. It implements common.Observer so tool handlers can
// record metrics and audit entries without importing this package.
//
// SessionManager keeps one agent.Orchestrator per session. Sessions are
// created on first use and expire after a period of inactivity; an expired
// session's memory window is discarded.
//
// QueryHandler serves POST /query: it routes a question to the session's
// orchestrator and optionally exports the answer as Markdown.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed, and
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
