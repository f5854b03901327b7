package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runDuration  *prometheus.HistogramVec
	rowsComputed prometheus.Gauge
	fetchErrors  *prometheus.CounterVec
	lastIndex    prometheus.Gauge
	signalActive prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketheat_run_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		rowsComputed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketheat_rows_computed",
				Help: "Number of rows in the last computed result table",
			},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketheat_fetch_errors_total",
				Help: "Total number of raw series fetch failures",
			},
			[]string{"series"},
		),
		lastIndex: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketheat_last_index",
				Help: "Most recent published overheat index value",
			},
		),
		signalActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketheat_signal_active",
				Help: "1 when the most recent index crossed the signal threshold",
			},
		),
	}
}

// RecordRunDuration records the duration of one pipeline stage.
func (r *Recorder) RecordRunDuration(stage string, seconds float64) {
	r.runDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRowsComputed records the output table size.
func (r *Recorder) RecordRowsComputed(n int) {
	r.rowsComputed.Set(float64(n))
}

// RecordFetchError records a raw series retrieval failure.
func (r *Recorder) RecordFetchError(series string) {
	r.fetchErrors.WithLabelValues(series).Inc()
}

// RecordLastIndex records the newest published index value.
func (r *Recorder) RecordLastIndex(value float64) {
	r.lastIndex.Set(value)
}

// RecordSignal records whether the overheat signal is active.
func (r *Recorder) RecordSignal(active bool) {
	if active {
		r.signalActive.Set(1)
		return
	}
	r.signalActive.Set(0)
}
