package handler

import (
	"fmt"
	"net/http"

	"github.com/exerlog/exerlog/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "exerlog_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "exerlog_exercises_added_total %d\n", snap.ExercisesAdded)

	writeMetric(w, "exerlog_log_cache_requests_total{result=\"hit\"} %d\n", snap.LogCacheHits)
	writeMetric(w, "exerlog_log_cache_requests_total{result=\"miss\"} %d\n", snap.LogCacheMisses)
	writeMetric(w, "exerlog_log_query_duration_seconds_count %d\n", snap.LogQueryDurationCount)
	writeMetric(w, "exerlog_log_query_duration_seconds_sum %.6f\n", float64(snap.LogQueryDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
