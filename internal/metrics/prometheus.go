package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "student_service"

// Registerer receives the collector's Prometheus series.
type Registerer = prometheus.Registerer

type promMetrics struct {
	calls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	slowCalls *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	state     *prometheus.GaugeVec
}

var stateValues = map[string]float64{
	"CLOSED":    0,
	"OPEN":      1,
	"HALF-OPEN": 2,
}

func newPromMetrics(reg Registerer) *promMetrics {
	m := &promMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guarded_calls_total",
				Help:      "Guarded calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "guarded_call_duration_seconds",
				Help:      "Duration of guarded calls that were admitted by the breaker",
				Buckets:   []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 3, 5, 10},
			},
			[]string{"operation"},
		),
		slowCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slow_calls_total",
				Help:      "Guarded calls slower than the slow-call threshold",
			},
			[]string{"operation"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallbacks_total",
				Help:      "Fallback values served instead of a real result",
			},
			[]string{"operation"},
		),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.calls, m.duration, m.slowCalls, m.fallbacks, m.state)
	}

	return m
}

func (m *promMetrics) observeCall(event MetricEvent) {
	m.calls.WithLabelValues(event.Operation, string(event.Type)).Inc()

	if event.Type == EventCallRejected {
		return
	}
	m.duration.WithLabelValues(event.Operation).Observe(event.Duration.Seconds())
	if event.Slow {
		m.slowCalls.WithLabelValues(event.Operation).Inc()
	}
}

func (m *promMetrics) observeState(operation, state string) {
	if v, ok := stateValues[state]; ok {
		m.state.WithLabelValues(operation).Set(v)
	}
}
