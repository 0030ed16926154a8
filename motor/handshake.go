package motor

import (
	"context"
	"log/slog"

	"github.com/TenLetterx/RPi-MDP10/metric"
	"github.com/TenLetterx/RPi-MDP10/mission"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// HandshakeDeps holds runtime dependencies for the handshake worker.
type HandshakeDeps struct {
	Link            Link
	State           *mission.State
	MetricsRegistry *metric.Registry
	Logger          *slog.Logger
}

// Handshake consumes motor-link lines and advances the ACK/FIN state:
// ACK clears the pending-acknowledgement flag without touching the movement
// lock, FIN releases the lock and reports the next planned waypoint. The
// loop only exits on context cancellation.
type Handshake struct {
	link    Link
	state   *mission.State
	logger  *slog.Logger
	metrics *Metrics
}

// NewHandshake creates the handshake worker.
func NewHandshake(deps HandshakeDeps) *Handshake {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "motor-handshake")
	}
	return &Handshake{
		link:    deps.Link,
		state:   deps.State,
		logger:  logger,
		metrics: newMetrics(deps.MetricsRegistry),
	}
}

// Run consumes lines until ctx is cancelled. Any internal failure releases the
// movement lock so execution cannot stall, and the loop continues.
func (h *Handshake) Run(ctx context.Context) error {
	for {
		line, err := h.link.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			h.logger.Error("motor receive failed", "error", err)
			// A stuck lock would stall the router forever.
			h.state.MovementLock.Release()
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			continue
		}

		switch line {
		case tokenAck:
			h.onAck()
		case tokenFin:
			h.onFin()
		case "":
		default:
			h.logger.Debug("ignoring motor line", "line", line)
			if h.metrics != nil {
				h.metrics.strayLines.Inc()
			}
		}
	}
}

// onAck clears the pending acknowledgement. The movement lock stays held
// until FIN; a duplicate ACK is benign.
func (h *Handshake) onAck() {
	if h.state.AwaitingAck.Disarm() {
		h.logger.Info("command accepted by motor controller")
		if h.metrics != nil {
			h.metrics.acks.Inc()
		}
		return
	}
	h.logger.Warn("duplicate ack ignored")
	if h.metrics != nil {
		h.metrics.duplicateAcks.Inc()
	}
}

// onFin releases the movement lock and, when a planned path is in progress,
// pops the waypoint just reached and reports it to the operator.
func (h *Handshake) onFin() {
	if !h.state.MovementLock.Release() {
		h.logger.Warn("movement finished with lock not held")
		if h.metrics != nil {
			h.metrics.idleFins.Inc()
		}
	} else if h.metrics != nil {
		h.metrics.fins.Inc()
	}

	wp, ok := h.state.Path.TryPop()
	if !ok {
		return
	}
	h.state.Pose.Set(protocol.Pose{X: wp.X, Y: wp.Y, Dir: wp.Dir})
	h.state.Outbound.Push(protocol.NewLocation(wp))
	h.logger.Info("waypoint reached", "x", wp.X, "y", wp.Y, "dir", wp.Dir.String())
}
