package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP and intake metrics of the server.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	Submissions     *prometheus.CounterVec
	Duplicates      *prometheus.CounterVec
	Dispatches      *prometheus.CounterVec
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers with reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contractflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 3, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractflow_submissions_total",
			Help: "Submissions received by intake source and outcome",
		}, []string{"source", "outcome"}),
		Duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractflow_duplicate_submissions_total",
			Help: "Submissions dropped because their idempotency key was already claimed",
		}, []string{"source"}),
		Dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contractflow_handoff_dispatches_total",
			Help: "Hand-off dispatches by mode and outcome",
		}, []string{"mode", "outcome"}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) IncrementSubmission(source, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) IncrementDuplicate(source string) {
	if m == nil {
		return
	}
	m.Duplicates.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementDispatch(mode, outcome string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(mode, outcome).Inc()
}
