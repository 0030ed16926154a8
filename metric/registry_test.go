package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	r := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mission",
		Subsystem: "router",
		Name:      "commands_dispatched_total",
		Help:      "Total commands dispatched to the motor link",
	})

	require.NoError(t, r.RegisterCounter("router", "commands_dispatched", counter))
	assert.True(t, r.Unregister("router", "commands_dispatched"))
	assert.False(t, r.Unregister("router", "commands_dispatched"))
}

func TestRegistry_DuplicateRegistrationRejected(t *testing.T) {
	r := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mission",
		Name:      "queue_depth",
		Help:      "Commands currently queued",
	})

	require.NoError(t, r.RegisterGauge("router", "queue_depth", gauge))
	err := r.RegisterGauge("router", "queue_depth", gauge)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate registration")
}
