package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Observer receives breaker events. Implementations must be safe for
// concurrent use and must not block: OnStateChange runs while the breaker
// holds its lock.
type Observer interface {
	OnStateChange(route string, from, to State)
	OnSuccess(route string)
	OnFailure(route string)
	OnRejected(route string)
}

type NopObserver struct{}

func (NopObserver) OnStateChange(string, State, State) {}
func (NopObserver) OnSuccess(string)                   {}
func (NopObserver) OnFailure(string)                   {}
func (NopObserver) OnRejected(string)                  {}

type PrometheusObserver struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	calls       *prometheus.CounterVec
}

func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shop",
			Subsystem: "gateway",
			Name:      "circuit_breaker_state",
			Help:      "Breaker state per route: 0 closed, 1 half-open, 2 open.",
		}, []string{"route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "gateway",
			Name:      "circuit_breaker_transitions_total",
			Help:      "Breaker state transitions.",
		}, []string{"route", "from", "to"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "gateway",
			Name:      "circuit_breaker_calls_total",
			Help:      "Calls seen by the breaker by outcome (success, failure, rejected).",
		}, []string{"route", "outcome"}),
	}
	reg.MustRegister(o.state, o.transitions, o.calls)
	return o
}

func (o *PrometheusObserver) OnStateChange(route string, from, to State) {
	o.state.WithLabelValues(route).Set(stateValue(to))
	o.transitions.WithLabelValues(route, from.String(), to.String()).Inc()
}

func (o *PrometheusObserver) OnSuccess(route string) {
	o.calls.WithLabelValues(route, "success").Inc()
}

func (o *PrometheusObserver) OnFailure(route string) {
	o.calls.WithLabelValues(route, "failure").Inc()
}

func (o *PrometheusObserver) OnRejected(route string) {
	o.calls.WithLabelValues(route, "rejected").Inc()
}

func stateValue(s State) float64 {
	switch s {
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return 0
	}
}
