package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the wave
// engine.
type Metrics struct {
	PositionsConsumed     prometheus.Counter
	NotificationsProduced prometheus.Counter
	EvaluationErrors      prometheus.Counter
	PipelineRunning       prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Wave state metrics.
	WaveProgression prometheus.Gauge
	LiveSubscribers prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PositionsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "positions_consumed_total",
			Help:      "Total position updates read from the position topic.",
		}),
		NotificationsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "notifications_produced_total",
			Help:      "Total notifications written to the notification topic.",
		}),
		EvaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "evaluation_errors_total",
			Help:      "Total position updates that failed to evaluate.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave_engine",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wave_engine",
			Name:      "batch_size",
			Help:      "Number of position updates per extracted batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wave_engine",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-evaluate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		WaveProgression: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave_engine",
			Name:      "wave_progression_ratio",
			Help:      "Fraction of the event area the wave has swept, 0 to 1.",
		}),
		LiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave_engine",
			Name:      "live_subscribers",
			Help:      "Currently connected websocket state-feed subscribers.",
		}),
	}

	prometheus.MustRegister(
		m.PositionsConsumed,
		m.NotificationsProduced,
		m.EvaluationErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.WaveProgression,
		m.LiveSubscribers,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PositionsConsumed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wave_engine", Name: "positions_consumed_total"}),
		NotificationsProduced:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wave_engine", Name: "notifications_produced_total"}),
		EvaluationErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wave_engine", Name: "evaluation_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wave_engine", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wave_engine", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wave_engine", Name: "batch_processing_duration_seconds"}),
		WaveProgression:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wave_engine", Name: "wave_progression_ratio"}),
		LiveSubscribers:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wave_engine", Name: "live_subscribers"}),
	}
}
