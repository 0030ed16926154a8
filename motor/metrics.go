package motor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TenLetterx/RPi-MDP10/metric"
)

// Metrics tracks handshake traffic on the motor link.
type Metrics struct {
	acks          prometheus.Counter
	duplicateAcks prometheus.Counter
	fins          prometheus.Counter
	idleFins      prometheus.Counter
	strayLines    prometheus.Counter
}

// newMetrics creates and registers motor metrics. A nil registry disables
// metrics (nil input = nil feature).
func newMetrics(registry *metric.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		acks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "motor",
			Name:      "acks_total",
			Help:      "Command acknowledgements received from the motor controller.",
		}),
		duplicateAcks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "motor",
			Name:      "duplicate_acks_total",
			Help:      "ACK tokens received while no acknowledgement was pending.",
		}),
		fins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "motor",
			Name:      "fins_total",
			Help:      "Movement completions received from the motor controller.",
		}),
		idleFins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "motor",
			Name:      "idle_fins_total",
			Help:      "FIN tokens received while the movement lock was not held.",
		}),
		strayLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "motor",
			Name:      "stray_lines_total",
			Help:      "Motor-link lines that were neither ACK nor FIN.",
		}),
	}

	_ = registry.RegisterCounter("motor", "acks", m.acks)
	_ = registry.RegisterCounter("motor", "duplicate_acks", m.duplicateAcks)
	_ = registry.RegisterCounter("motor", "fins", m.fins)
	_ = registry.RegisterCounter("motor", "idle_fins", m.idleFins)
	_ = registry.RegisterCounter("motor", "stray_lines", m.strayLines)

	return m
}
