package metrics

import "github.com/prometheus/client_golang/prometheus"

func (r *Recorder) TurnsCounter(outcome string) prometheus.Counter {
	return r.turns.WithLabelValues(outcome)
}
