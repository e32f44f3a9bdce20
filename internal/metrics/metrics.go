package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/avana/avana/internal/extract"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for avana
type Metrics struct {
	// Extraction runs
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds *prometheus.HistogramVec
	DetectedTotal      prometheus.Counter
	UniqueTotal        prometheus.Counter
	SelectedTotal      *prometheus.CounterVec
	SkippedTotal       prometheus.Counter
	EmptyRunsTotal     prometheus.Counter

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// System metrics
	UptimeSeconds prometheus.GaugeFunc

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()
	start := time.Now()

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avana_runs_total",
				Help: "Total number of extraction runs",
			},
			[]string{"source"},
		),
		RunDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "avana_run_duration_seconds",
				Help:    "Extraction run duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"source"},
		),
		DetectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "avana_addresses_detected_total",
				Help: "Total number of address matches, duplicates included",
			},
		),
		UniqueTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "avana_addresses_unique_total",
				Help: "Total number of unique addresses after deduplication",
			},
		),
		SelectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avana_addresses_selected_total",
				Help: "Total number of selected addresses",
			},
			[]string{"type"},
		),
		SkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "avana_addresses_skipped_total",
				Help: "Total number of addresses left out by the per-domain cap",
			},
		),
		EmptyRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "avana_empty_runs_total",
				Help: "Total number of runs that found no address",
			},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avana_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "avana_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avana_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		UptimeSeconds: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "avana_uptime_seconds",
				Help: "Server uptime in seconds",
			},
			func() float64 { return time.Since(start).Seconds() },
		),

		registry: reg,
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDurationSeconds,
		m.DetectedTotal,
		m.UniqueTotal,
		m.SelectedTotal,
		m.SkippedTotal,
		m.EmptyRunsTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.UptimeSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records the counters of one extraction run
func (m *Metrics) ObserveRun(source string, s extract.Summary, d time.Duration) {
	m.RunsTotal.WithLabelValues(source).Inc()
	m.RunDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
	m.DetectedTotal.Add(float64(s.Detected))
	m.UniqueTotal.Add(float64(s.UniqueTotal))
	m.SelectedTotal.WithLabelValues(string(extract.TypePriority)).Add(float64(s.PriorityCount))
	m.SelectedTotal.WithLabelValues(string(extract.TypeGeneral)).Add(float64(s.SelectedCount - s.PriorityCount))
	m.SkippedTotal.Add(float64(s.SkippedCount))
	if s.UniqueTotal == 0 {
		m.EmptyRunsTotal.Inc()
	}
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// ObserveRun records a run on the global instance, if any
func ObserveRun(source string, s extract.Summary, d time.Duration) {
	m := Global()
	if m != nil {
		m.ObserveRun(source, s, d)
	}
}
