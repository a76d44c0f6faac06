package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for contract pipeline runs.
type Metrics struct {
	// Runs by variant and outcome (success, failed, skipped)
	Runs *prometheus.CounterVec

	// Stage latencies
	StageDuration *prometheus.HistogramVec

	// Stage failures by provider error category
	StageFailures *prometheus.CounterVec

	// Full run latency
	RunDuration prometheus.Histogram
}

// New registers the pipeline metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the pipeline metrics with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contractflow_pipeline_runs_total",
			Help: "Total pipeline runs by contract variant and outcome",
		}, []string{"variant", "outcome"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contractflow_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contractflow_pipeline_stage_failures_total",
			Help: "Total stage failures by stage and error category",
		}, []string{"stage", "category"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contractflow_pipeline_run_duration_seconds",
			Help:    "Duration of a full pipeline run",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
	}
}

// IncrementRun records a run outcome.
func (m *Metrics) IncrementRun(variant, outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(variant, outcome).Inc()
	}
}

// ObserveStage records the duration of a stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementStageFailure records a failed stage.
func (m *Metrics) IncrementStageFailure(stage, category string) {
	if m != nil {
		m.StageFailures.WithLabelValues(stage, category).Inc()
	}
}

// ObserveRun records the total run duration.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}
