package metrics

/*
lookalike — bulk DNS/WHOIS reconnaissance for look-alike domains
Copyright (C) 2026  Marit Deelstra <lookalike@driftsec.dev>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry           = prometheus.NewRegistry()
	defaultRegisterer  = promauto.With(registry)
	metricsInitialized sync.Once
	metricsEnabled     bool
	metricsServer      *http.Server
)

// Metrics contains all the Prometheus metrics for the application
type Metrics struct {
	// Lookup metrics, shared by the DNS and WHOIS clients
	LookupDuration *prometheus.HistogramVec
	LookupsTotal   *prometheus.CounterVec

	// Pipeline metrics
	QueriesTotal      *prometheus.CounterVec
	RowsWrittenTotal  *prometheus.CounterVec
	WhoisSkippedTotal *prometheus.CounterVec
	RowIssuesTotal    *prometheus.CounterVec

	// Worker pool metrics
	WorkerBusy     *prometheus.GaugeVec
	WorkerPanics   *prometheus.CounterVec
	RateLimitDelay *prometheus.HistogramVec
	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec

	// Output metrics
	SinkWriteDuration *prometheus.HistogramVec
	SinkErrors        *prometheus.CounterVec
}

// Global instance of metrics
var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection
func EnableMetrics() {
	metricsEnabled = true
}

// IsMetricsEnabled returns whether metrics collection is enabled
func IsMetricsEnabled() bool {
	return metricsEnabled
}

// newMetrics creates and registers all metrics
func newMetrics() *Metrics {
	buckets := []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

	m := &Metrics{
		LookupDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lookalike_lookup_duration_seconds",
				Help:    "Time spent on individual DNS and WHOIS lookups",
				Buckets: buckets,
			},
			[]string{"service", "kind", "outcome"},
		),
		LookupsTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_lookups_total",
				Help: "Total number of DNS and WHOIS lookups",
			},
			[]string{"service", "kind", "outcome"},
		),

		QueriesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_queries_total",
				Help: "Total number of input queries processed per pipeline",
			},
			[]string{"pipeline", "status"},
		),
		RowsWrittenTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_rows_written_total",
				Help: "Total number of output rows written",
			},
			[]string{"pipeline"},
		),
		WhoisSkippedTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_whois_skipped_total",
				Help: "WHOIS lookups skipped because DNS indicated non-existence",
			},
			[]string{"pipeline"},
		),
		RowIssuesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_row_issues_total",
				Help: "Per-row issues recorded in output notes",
			},
			[]string{"pipeline", "issue_type"},
		),

		WorkerBusy: defaultRegisterer.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lookalike_worker_busy",
				Help: "Whether a worker is currently busy (1) or idle (0)",
			},
			[]string{"worker_id"},
		),
		WorkerPanics: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_worker_panics_total",
				Help: "Total number of panics recovered by a worker",
			},
			[]string{"worker_id"},
		),
		RateLimitDelay: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lookalike_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the politeness limiter",
				Buckets: buckets,
			},
			[]string{"worker_id"},
		),
		TasksSubmitted: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_tasks_submitted_total",
				Help: "Total number of tasks submitted to the worker pool",
			},
			[]string{"worker_id"},
		),
		TasksCompleted: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_tasks_completed_total",
				Help: "Total number of tasks completed by the worker pool",
			},
			[]string{"worker_id", "status"},
		),

		SinkWriteDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lookalike_sink_write_duration_seconds",
				Help:    "Time spent writing and flushing output rows",
				Buckets: buckets,
			},
			[]string{"output"},
		),
		SinkErrors: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookalike_sink_errors_total",
				Help: "Total number of output write errors",
			},
			[]string{"output"},
		),
	}

	return m
}

// ObserveLookup records one categorized lookup with its duration. service is
// "dns" or "whois"; kind is the query type ("A", "MX", "domain", ...).
func (m *Metrics) ObserveLookup(service, kind, outcome string, d time.Duration) {
	if !metricsEnabled {
		return
	}
	m.LookupDuration.WithLabelValues(service, kind, outcome).Observe(d.Seconds())
	m.LookupsTotal.WithLabelValues(service, kind, outcome).Inc()
}

// ObserveQuery counts one finished input query for a pipeline.
func (m *Metrics) ObserveQuery(pipeline, status string) {
	if !metricsEnabled {
		return
	}
	m.QueriesTotal.WithLabelValues(pipeline, status).Inc()
}

// ObserveRowWritten counts one output row.
func (m *Metrics) ObserveRowWritten(pipeline string) {
	if !metricsEnabled {
		return
	}
	m.RowsWrittenTotal.WithLabelValues(pipeline).Inc()
}

// ObserveWhoisSkipped counts one WHOIS lookup suppressed by the DNS
// non-existence rule.
func (m *Metrics) ObserveWhoisSkipped(pipeline string) {
	if !metricsEnabled {
		return
	}
	m.WhoisSkippedTotal.WithLabelValues(pipeline).Inc()
}

// ObserveRowIssue counts one categorized per-row issue.
func (m *Metrics) ObserveRowIssue(pipeline, issueType string) {
	if !metricsEnabled {
		return
	}
	m.RowIssuesTotal.WithLabelValues(pipeline, issueType).Inc()
}

// ObserveWorkerPanic counts one recovered panic.
func (m *Metrics) ObserveWorkerPanic(workerID int) {
	if !metricsEnabled {
		return
	}
	m.WorkerPanics.WithLabelValues(strconv.Itoa(workerID)).Inc()
}

// ObserveRateLimitDelay records time a worker spent waiting on its limiter.
func (m *Metrics) ObserveRateLimitDelay(workerID int, d time.Duration) {
	if !metricsEnabled {
		return
	}
	m.RateLimitDelay.WithLabelValues(strconv.Itoa(workerID)).Observe(d.Seconds())
}

// SetWorkerBusy flips the busy gauge for a worker.
func (m *Metrics) SetWorkerBusy(workerID int, busy bool) {
	if !metricsEnabled {
		return
	}
	v := 0.0
	if busy {
		v = 1.0
	}
	m.WorkerBusy.WithLabelValues(strconv.Itoa(workerID)).Set(v)
}

// MeasureDuration is a helper to measure the duration of a function
func MeasureDuration(histogram *prometheus.HistogramVec, labels prometheus.Labels) func() {
	if !metricsEnabled {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		histogram.With(labels).Observe(duration.Seconds())
	}
}

// StartMetricsServer starts an HTTP server to expose Prometheus metrics
func StartMetricsServer(addr string) error {
	if !metricsEnabled {
		return nil
	}

	// Only start once
	var startErr error
	metricsInitialized.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		metricsServer = &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		go func() {
			log.Printf("Starting metrics server on %s", addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	})

	return startErr
}

// ShutdownMetricsServer gracefully shuts down the metrics server
func ShutdownMetricsServer(ctx context.Context) error {
	if metricsServer != nil {
		log.Println("Shutting down metrics server...")
		return metricsServer.Shutdown(ctx)
	}
	return nil
}
