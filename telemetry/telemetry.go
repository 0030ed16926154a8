// Package telemetry mirrors mission events to NATS so a ground station can
// follow the run live. Publishing is fire-and-forget and fully optional: a
// nil connection disables the mirror.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event is one mission event published to the mirror.
type Event struct {
	Timestamp string         `json:"timestamp"` // RFC3339 format
	Mission   string         `json:"mission"`
	Kind      string         `json:"kind"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Mirror publishes mission events under mission.events.<kind>. All methods
// are safe on a disabled mirror.
type Mirror struct {
	mission string
	nc      *nats.Conn
	logger  *slog.Logger
	enabled bool
}

// NewMirror creates a mirror for the named mission. A nil conn disables it.
func NewMirror(mission string, nc *nats.Conn, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default().With("component", "telemetry")
	}
	return &Mirror{
		mission: mission,
		nc:      nc,
		logger:  logger,
		enabled: nc != nil,
	}
}

// Enabled reports whether events are actually published.
func (m *Mirror) Enabled() bool {
	return m != nil && m.enabled
}

// Publish sends one event. Failures are logged and swallowed; telemetry
// must never affect the mission.
func (m *Mirror) Publish(kind string, detail map[string]any) {
	if !m.Enabled() {
		return
	}

	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Mission:   m.mission,
		Kind:      kind,
		Detail:    detail,
	}
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Warn("telemetry event encode failed", "kind", kind, "error", err)
		return
	}

	subject := fmt.Sprintf("mission.events.%s", kind)
	if err := m.nc.Publish(subject, data); err != nil {
		m.logger.Warn("telemetry publish failed", "subject", subject, "error", err)
	}
}

// Connect dials a NATS server for the mirror. An empty URL returns a nil
// connection, which disables publishing.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("mission-telemetry"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("telemetry mirror connected", "url", url)
	}
	return nc, nil
}
