package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusUnreachable  = "unreachable"
)

const (
	// DefaultCalendarProbeTTL is how long a calendar probe result is reused.
	DefaultCalendarProbeTTL = 30 * time.Second
	// DefaultCalendarProbeTimeout bounds one calendar probe.
	DefaultCalendarProbeTimeout = 5 * time.Second
)

// HealthChecker serves liveness and readiness probes. Readiness includes a
// cached ListCalendars call so a broken token or unreachable calendar API
// takes the instance out of rotation.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	sessions      *SessionManager
	startTime     time.Time

	probeTTL     time.Duration
	probeTimeout time.Duration
	now          func() time.Time

	probeMu   sync.Mutex
	probedAt  time.Time
	probeErr  error
	hasProbed bool
}

// NewHealthChecker creates a new HealthChecker. Either argument may be nil;
// without a server context the calendar is not probed.
func NewHealthChecker(sc *ServerContext, sessions *SessionManager) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		sessions:      sessions,
		startTime:     time.Now(),
		probeTTL:      DefaultCalendarProbeTTL,
		probeTimeout:  DefaultCalendarProbeTimeout,
		now:           time.Now,
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) isShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// calendarErr returns the result of the last calendar probe, probing again
// when it is older than probeTTL.
func (h *HealthChecker) calendarErr(ctx context.Context) error {
	if h.serverContext == nil {
		return nil
	}

	h.probeMu.Lock()
	defer h.probeMu.Unlock()

	if h.hasProbed && h.now().Sub(h.probedAt) < h.probeTTL {
		return h.probeErr
	}

	ctx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()
	_, h.probeErr = h.serverContext.Backend().ListCalendars(ctx)
	h.probedAt = h.now()
	h.hasProbed = true
	return h.probeErr
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds uptime and the number of live sessions.
type DetailedHealthResponse struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	Sessions int               `json:"sessions"`
	Checks   map[string]string `json:"checks"`
}

// checks runs every readiness check. ok is false if any failed.
func (h *HealthChecker) checks(ctx context.Context) (checks map[string]string, ok bool) {
	checks = map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
		"calendar": healthStatusOK,
	}
	ok = true

	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.isShuttingDown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
		// no point probing a backend that is being torn down
		return checks, ok
	}
	if err := h.calendarErr(ctx); err != nil {
		checks["calendar"] = healthStatusUnreachable
		ok = false
	}
	return checks, ok
}

// LivenessHandler serves /healthz. It only reports that the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks, ok := h.checks(r.Context())
		resp := HealthResponse{Status: healthStatusOK, Checks: checks}
		status := http.StatusOK
		if !ok {
			resp.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, resp)
	})
}

// DetailedHealthHandler serves /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks, ok := h.checks(r.Context())
		resp := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		}
		if h.sessions != nil {
			resp.Sessions = len(h.sessions.ListSessions())
		}

		status := http.StatusOK
		switch {
		case h.isShuttingDown():
			resp.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		case !ok:
			resp.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, resp)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
