// Package metrics exports turn pipeline metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hippo"

// Turn outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeDegraded  = "degraded"
	OutcomeErrored   = "errored"
)

// Recorder holds the pipeline collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	turns         *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	sessions      prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "turn",
				Name:      "total",
				Help:      "Total number of turns by outcome",
			},
			[]string{"outcome"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "turn",
				Name:      "stage_failures_total",
				Help:      "Total number of collaborator failures by stage",
			},
			[]string{"stage"},
		),
		stageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "turn",
				Name:      "stage_latency_seconds",
				Help:      "Latency of each pipeline stage in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of sessions held in memory",
			},
		),
	}

	registry.MustRegister(r.turns, r.stageFailures, r.stageLatency, r.sessions)
	return r
}

// Turn counts one finished turn
func (r *Recorder) Turn(outcome string) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
}

// StageFailure counts a failed collaborator call
func (r *Recorder) StageFailure(stage string) {
	if r == nil {
		return
	}
	r.stageFailures.WithLabelValues(stage).Inc()
}

// ObserveStage records how long a stage took
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// SetSessions sets the number of live sessions
func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

// Handler serves the registry for scraping
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
