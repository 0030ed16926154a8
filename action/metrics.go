package action

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TenLetterx/RPi-MDP10/metric"
)

// Metrics tracks action processing.
type Metrics struct {
	processed       *prometheus.CounterVec
	captureFailures prometheus.Counter
}

// newMetrics creates and registers action metrics. A nil registry disables
// metrics (nil input = nil feature).
func newMetrics(registry *metric.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "action",
			Name:      "actions_processed_total",
			Help:      "Actions consumed from the action queue, labeled by kind.",
		}, []string{"kind"}),
		captureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "action",
			Name:      "capture_failures_total",
			Help:      "Image captures that failed.",
		}),
	}

	_ = registry.RegisterCounterVec("action", "actions_processed", m.processed)
	_ = registry.RegisterCounter("action", "capture_failures", m.captureFailures)

	return m
}
