// Package metrics holds Prometheus metrics for an export run.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunMetrics holds all Prometheus metrics for the attendance pipeline.
type RunMetrics struct {
	registry *prometheus.Registry

	// Request executor metrics
	Requests         *prometheus.CounterVec
	Retries          prometheus.Counter
	ThrottleSuspends prometheus.Counter

	// Discovery metrics
	CandidatesTotal *prometheus.CounterVec
	ChannelFailures *prometheus.CounterVec

	// Pipeline metrics
	MeetingsResolved   prometheus.Counter
	MeetingsUnresolved prometheus.Counter
	RowsEmitted        prometheus.Counter
	RowsDeduplicated   prometheus.Counter
	FailuresRecorded   *prometheus.CounterVec
	AttendanceSeconds  prometheus.Histogram
}

// NewRunMetrics creates the metric set on its own registry so parallel test
// runs never collide on the default registerer.
func NewRunMetrics() *RunMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &RunMetrics{
		registry: registry,

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_graph_requests_total",
				Help: "Total Graph API requests issued",
			},
			[]string{"method"},
		),
		Retries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_graph_retries_total",
				Help: "Total transient-failure retries",
			},
		),
		ThrottleSuspends: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_graph_throttle_suspends_total",
				Help: "Total 429 throttle suspensions",
			},
		),
		CandidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_candidates_total",
				Help: "Meeting candidates discovered per source channel",
			},
			[]string{"channel"},
		),
		ChannelFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_channel_failures_total",
				Help: "Discovery channels that could not run",
			},
			[]string{"channel"},
		),
		MeetingsResolved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_meetings_resolved_total",
				Help: "Candidates resolved to an online-meeting id",
			},
		),
		MeetingsUnresolved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_meetings_unresolved_total",
				Help: "Candidates with no resolvable online-meeting id",
			},
		),
		RowsEmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_rows_emitted_total",
				Help: "Attendance rows emitted before deduplication",
			},
		),
		RowsDeduplicated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "attendance_rows_deduplicated_total",
				Help: "Duplicate attendance rows removed",
			},
		),
		FailuresRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attendance_failures_total",
				Help: "Failure entries recorded, by reason",
			},
			[]string{"reason"},
		),
		AttendanceSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "attendance_row_duration_seconds",
				Help:    "Attended duration of one emitted attendance row",
				Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800},
			},
		),
	}
}

// Handler returns an HTTP handler exposing the run's metrics.
func (m *RunMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until the context is cancelled. It is used
// for long scheduled runs that are scraped while in flight.
func (m *RunMetrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
