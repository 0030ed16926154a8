package operator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TenLetterx/RPi-MDP10/metric"
)

// Metrics holds prometheus metrics for the operator-facing workers.
type Metrics struct {
	linesReceived prometheus.Counter
	parseErrors   prometheus.Counter
	messagesSent  prometheus.Counter
	sendErrors    prometheus.Counter
	linkDrops     prometheus.Counter
}

// NewMetrics creates and registers operator metrics. A nil registry
// disables metrics (nil input = nil feature).
func NewMetrics(registry *metric.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		linesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "operator",
			Name:      "lines_received_total",
			Help:      "Total lines received from the operator link",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "operator",
			Name:      "parse_errors_total",
			Help:      "Lines dropped by the protocol parser",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "operator",
			Name:      "messages_sent_total",
			Help:      "Status messages forwarded to the operator",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "operator",
			Name:      "send_errors_total",
			Help:      "Failed sends on the operator link",
		}),
		linkDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mission",
			Subsystem: "operator",
			Name:      "link_drops_total",
			Help:      "Times the operator link was observed dropped",
		}),
	}

	_ = registry.RegisterCounter("operator", "lines_received", m.linesReceived)
	_ = registry.RegisterCounter("operator", "parse_errors", m.parseErrors)
	_ = registry.RegisterCounter("operator", "messages_sent", m.messagesSent)
	_ = registry.RegisterCounter("operator", "send_errors", m.sendErrors)
	_ = registry.RegisterCounter("operator", "link_drops", m.linkDrops)

	return m
}
