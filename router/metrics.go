package router

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TenLetterx/RPi-MDP10/metric"
)

// Metrics tracks command dispatch.
type Metrics struct {
	dispatched       *prometheus.CounterVec
	dispatchFailures prometheus.Counter
}

// newMetrics creates and registers router metrics. A nil registry disables
// metrics (nil input = nil feature).
func newMetrics(registry *metric.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "router",
			Name:      "commands_dispatched_total",
			Help:      "Commands dispatched, labeled by branch.",
		}, []string{"kind"}),
		dispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "router",
			Name:      "dispatch_failures_total",
			Help:      "Movement commands that failed to reach the motor controller.",
		}),
	}

	_ = registry.RegisterCounterVec("router", "commands_dispatched", m.dispatched)
	_ = registry.RegisterCounter("router", "dispatch_failures", m.dispatchFailures)

	return m
}
