package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"venturelens/internal/events"
)

type apiMetrics struct {
	startedAtUnix           int64
	streamStatsProvider     events.StatsProvider
	reportsStartedTotal     atomic.Int64
	mediaJobsStartedTotal   atomic.Int64
	comparisonsStartedTotal atomic.Int64
	rateLimitedTotal        atomic.Int64
	streamMetricsErrors     atomic.Int64
}

func NewMetrics(streamStatsProvider events.StatsProvider) *apiMetrics {
	return &apiMetrics{
		startedAtUnix:       time.Now().Unix(),
		streamStatsProvider: streamStatsProvider,
	}
}

func (m *apiMetrics) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)

	uptimeSeconds := time.Now().Unix() - m.startedAtUnix
	_, _ = fmt.Fprintf(w, "# HELP venturelens_uptime_seconds Process uptime in seconds.\n")
	_, _ = fmt.Fprintf(w, "# TYPE venturelens_uptime_seconds gauge\n")
	_, _ = fmt.Fprintf(w, "venturelens_uptime_seconds %d\n", uptimeSeconds)

	_, _ = fmt.Fprintf(w, "# HELP venturelens_reports_started_total Report generation runs accepted.\n")
	_, _ = fmt.Fprintf(w, "# TYPE venturelens_reports_started_total counter\n")
	_, _ = fmt.Fprintf(w, "venturelens_reports_started_total %d\n", m.reportsStartedTotal.Load())

	_, _ = fmt.Fprintf(w, "# HELP venturelens_media_jobs_started_total Media generation jobs accepted.\n")
	_, _ = fmt.Fprintf(w, "# TYPE venturelens_media_jobs_started_total counter\n")
	_, _ = fmt.Fprintf(w, "venturelens_media_jobs_started_total %d\n", m.mediaJobsStartedTotal.Load())

	_, _ = fmt.Fprintf(w, "# HELP venturelens_comparisons_started_total Comparison runs accepted.\n")
	_, _ = fmt.Fprintf(w, "# TYPE venturelens_comparisons_started_total counter\n")
	_, _ = fmt.Fprintf(w, "venturelens_comparisons_started_total %d\n", m.comparisonsStartedTotal.Load())

	_, _ = fmt.Fprintf(w, "# HELP venturelens_rate_limited_total Requests rejected due to rate limiting.\n")
	_, _ = fmt.Fprintf(w, "# TYPE venturelens_rate_limited_total counter\n")
	_, _ = fmt.Fprintf(w, "venturelens_rate_limited_total %d\n", m.rateLimitedTotal.Load())

	if m.streamStatsProvider != nil {
		depth, err := m.loadStreamDepth(r.Context())
		if err != nil {
			m.streamMetricsErrors.Add(1)
		} else {
			_, _ = fmt.Fprintf(w, "# HELP venturelens_transition_stream_depth Transition entries retained in the Redis stream.\n")
			_, _ = fmt.Fprintf(w, "# TYPE venturelens_transition_stream_depth gauge\n")
			_, _ = fmt.Fprintf(w, "venturelens_transition_stream_depth %d\n", depth)
		}
	}

	_, _ = fmt.Fprintf(w, "# HELP venturelens_stream_metrics_errors_total Stream metrics collection errors.\n")
	_, _ = fmt.Fprintf(w, "# TYPE venturelens_stream_metrics_errors_total counter\n")
	_, _ = fmt.Fprintf(w, "venturelens_stream_metrics_errors_total %d\n", m.streamMetricsErrors.Load())
}

func (m *apiMetrics) loadStreamDepth(parent context.Context) (int64, error) {
	ctx := parent
	cancel := func() {}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		ctx, cancel = context.WithTimeout(ctx, 1200*time.Millisecond)
	}
	defer cancel()

	return m.streamStatsProvider.StreamDepth(ctx)
}
