// Package metrics provides Prometheus metrics for argos validation runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the run metrics of one registry.
type Manager struct {
	namespace     string
	subsystem     string
	decodeBuckets []float64
	ruleBuckets   []float64
	constLabels   prometheus.Labels
	registry      prometheus.Registerer

	// Decode metrics
	tracesDecoded  prometheus.Counter
	decodeFailures prometheus.Counter
	decodeLatency  prometheus.Histogram

	// Rule metrics
	anomalies    *prometheus.CounterVec
	ruleDuration *prometheus.HistogramVec

	// Run metrics
	runDuration prometheus.Gauge
	records     prometheus.Gauge
	events      prometheus.Gauge
	lastRunUnix prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:     "argos",
		subsystem:     "validation",
		decodeBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ruleBuckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		registry:      prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.tracesDecoded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "traces_decoded_total",
		Help:        "Total number of traces decoded successfully",
		ConstLabels: m.constLabels,
	})

	m.decodeFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "decode_failures_total",
		Help:        "Total number of traces the decoder could not read",
		ConstLabels: m.constLabels,
	})

	m.decodeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "decode_duration_seconds",
		Help:        "Time spent decoding one trace",
		Buckets:     m.decodeBuckets,
		ConstLabels: m.constLabels,
	})

	m.anomalies = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "anomalies_total",
			Help:        "Anomalies found, by kind",
			ConstLabels: m.constLabels,
		},
		[]string{"kind"},
	)

	m.ruleDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "rule_duration_seconds",
			Help:        "Time spent evaluating one rule over the batch",
			Buckets:     m.ruleBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"rule"},
	)

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of the last run",
		ConstLabels: m.constLabels,
	})

	m.records = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records",
		Help:        "Measurement records in the last run",
		ConstLabels: m.constLabels,
	})

	m.events = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events",
		Help:        "Trace events in the last run",
		ConstLabels: m.constLabels,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last run finished",
		ConstLabels: m.constLabels,
	})
}

// RecordTraceDecoded counts a successful decode and its latency.
func RecordTraceDecoded(took time.Duration) {
	globalManager.tracesDecoded.Inc()
	globalManager.decodeLatency.Observe(took.Seconds())
}

// RecordDecodeFailure counts a failed decode.
func RecordDecodeFailure() {
	globalManager.decodeFailures.Inc()
}

// RecordAnomalies adds n anomalies of kind.
func RecordAnomalies(kind string, n int) {
	if n <= 0 {
		return
	}
	globalManager.anomalies.WithLabelValues(kind).Add(float64(n))
}

// RecordRuleDuration records how long a rule took.
func RecordRuleDuration(rule string, took time.Duration) {
	globalManager.ruleDuration.WithLabelValues(rule).Observe(took.Seconds())
}

// RecordRun sets the gauges describing a finished run.
func RecordRun(took time.Duration, records, events int, finished time.Time) {
	globalManager.runDuration.Set(took.Seconds())
	globalManager.records.Set(float64(records))
	globalManager.events.Set(float64(events))
	globalManager.lastRunUnix.Set(float64(finished.Unix()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the registry to path in the node exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, path, err)
	}
	return nil
}
