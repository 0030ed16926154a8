package planner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TenLetterx/RPi-MDP10/metric"
)

// Metrics tracks planning-service traffic.
type Metrics struct {
	planRequests   prometheus.Counter
	planFailures   prometheus.Counter
	stitchFailures prometheus.Counter
}

// newMetrics creates and registers planner metrics. A nil registry disables
// metrics (nil input = nil feature).
func newMetrics(registry *metric.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		planRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "planner",
			Name:      "plan_requests_total",
			Help:      "Planning requests issued to the service.",
		}),
		planFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "planner",
			Name:      "plan_failures_total",
			Help:      "Planning requests that exhausted retries or failed to decode.",
		}),
		stitchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "planner",
			Name:      "stitch_failures_total",
			Help:      "Stitch requests that failed.",
		}),
	}

	_ = registry.RegisterCounter("planner", "plan_requests", m.planRequests)
	_ = registry.RegisterCounter("planner", "plan_failures", m.planFailures)
	_ = registry.RegisterCounter("planner", "stitch_failures", m.stitchFailures)

	return m
}
