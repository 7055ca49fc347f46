package server

import (
	"net/http"
	"time"

	"github.com/teemow/scheduler/internal/instrumentation"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithHTTPMetrics records method, path, status and duration of every request.
// Paths outside known are recorded as "other" to bound label cardinality.
func WithHTTPMetrics(next http.Handler, metrics *instrumentation.Metrics, known ...string) http.Handler {
	paths := make(map[string]struct{}, len(known))
	for _, p := range known {
		paths[p] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if _, ok := paths[path]; !ok {
			path = "other"
		}
		metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}
