// Package telemetry exposes Prometheus metrics for the classification and
// trend pipelines.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all linkpulse Prometheus metrics.
type Metrics struct {
	// Classification pipeline
	RecordsClassified *prometheus.CounterVec // source: rule|llm
	RecordsSkipped    prometheus.Counter
	ModelFallbacks    *prometheus.CounterVec // reason: no_api_key|call_failed|parse_failed|no_result
	ClassifyRuns      prometheus.Counter
	ClassifyDuration  prometheus.Histogram
	BatchSize         prometheus.Histogram

	// Trend pipeline
	TrendRuns     prometheus.Counter
	TrendDuration prometheus.Histogram
}

// NewMetrics registers and returns all metrics on the default registry.
// Call once per process; promauto panics on duplicate registration.
func NewMetrics() *Metrics {
	return &Metrics{
		RecordsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkpulse_records_classified_total",
			Help: "Total URL records classified, by classifier source",
		}, []string{"source"}),

		RecordsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_records_skipped_total",
			Help: "Total URL records that failed to persist during a run",
		}),

		ModelFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkpulse_model_fallbacks_total",
			Help: "Synthetic model-classifier results, by failure mode",
		}, []string{"reason"}),

		ClassifyRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_classify_runs_total",
			Help: "Total classification runs",
		}),

		ClassifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_classify_run_duration_seconds",
			Help:    "Duration of a full classification run",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_model_batch_size",
			Help:    "Number of records per model-classifier batch",
			Buckets: []float64{1, 5, 10, 15, 25, 50},
		}),

		TrendRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_trend_runs_total",
			Help: "Total aggregate-and-summarize runs",
		}),

		TrendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_trend_run_duration_seconds",
			Help:    "Duration of a full trend run",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
