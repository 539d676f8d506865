// Package metrics provides Prometheus metrics for standings rendering runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reason label values.
const (
	ReasonUnsupportedPolicy = "unsupported_policy"
	ReasonMissingDivisions  = "missing_divisions"
	ReasonDivisionConflict  = "division_conflict"
	ReasonInvalidConfig     = "invalid_config"
	ReasonNoRaces           = "no_races"
	ReasonDuplicateResult   = "duplicate_result"
	ReasonSinkIO            = "sink_io"
	ReasonSource            = "source"
	ReasonOther             = "other"
)

// Manager owns the collectors of one registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	seriesRendered prometheus.Counter
	seriesFailed   *prometheus.CounterVec
	resultsScored  prometheus.Counter
	runnersRanked  prometheus.Counter
	renderDuration prometheus.Histogram
	filesWritten   *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics in textfile snapshots.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gpstandings",
		subsystem:        "render",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.seriesRendered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "series_rendered_total",
		Help:      "Series whose standings were rendered for every gender",
	})

	m.seriesFailed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "series_failed_total",
			Help:      "Series skipped because of a series-fatal condition",
		},
		[]string{"reason"},
	)

	m.resultsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_scored_total",
		Help:      "Race results converted to points",
	})

	m.runnersRanked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runners_ranked_total",
		Help:      "Runner lines ranked in overall gender standings",
	})

	m.renderDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "series_duration_milliseconds",
		Help:      "Wall time of one series render in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.filesWritten = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "files_written_total",
			Help:      "Standings files written by format",
		},
		[]string{"format"},
	)
}

// RecordSeriesRendered increments the rendered series counter.
func RecordSeriesRendered() {
	globalManager.seriesRendered.Inc()
}

// RecordSeriesFailed increments the failed series counter for reason.
func RecordSeriesFailed(reason string) {
	globalManager.seriesFailed.WithLabelValues(reason).Inc()
}

// RecordResultsScored adds n scored results.
func RecordResultsScored(n int) {
	globalManager.resultsScored.Add(float64(n))
}

// RecordRunnersRanked adds n ranked runners.
func RecordRunnersRanked(n int) {
	globalManager.runnersRanked.Add(float64(n))
}

// RecordRenderDuration records one series render time in milliseconds.
func RecordRenderDuration(ms float64) {
	globalManager.renderDuration.Observe(ms)
}

// RecordFileWritten increments the written file counter for format.
func RecordFileWritten(format string) {
	globalManager.filesWritten.WithLabelValues(format).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes a snapshot of the registry in the node-exporter
// textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}
