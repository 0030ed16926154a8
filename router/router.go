// Package router dispatches queued commands: movements go to the motor
// controller under the movement lock and the ACK/FIN handshake, snapshots
// are handed to the action processor, and the finalize sentinel winds the
// mission down.
package router

import (
	"context"
	"log/slog"

	"github.com/TenLetterx/RPi-MDP10/metric"
	"github.com/TenLetterx/RPi-MDP10/mission"
	"github.com/TenLetterx/RPi-MDP10/motor"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// Deps holds runtime dependencies for the router worker.
type Deps struct {
	Motor           motor.Link
	State           *mission.State
	MetricsRegistry *metric.Registry
	Logger          *slog.Logger
}

// Router is the command-dispatch worker. Exactly one router runs per
// mission; it is the only writer on the motor link.
type Router struct {
	motor   motor.Link
	state   *mission.State
	logger  *slog.Logger
	metrics *Metrics
}

// New creates the router worker.
func New(deps Deps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "router")
	}
	return &Router{
		motor:   deps.Motor,
		state:   deps.State,
		logger:  logger,
		metrics: newMetrics(deps.MetricsRegistry),
	}
}

// Run dispatches commands until the finalize sentinel completes or ctx is
// cancelled. Every command waits for the execution gate and holds the
// movement lock while its branch decides what to do with it.
func (r *Router) Run(ctx context.Context) error {
	for {
		cmd, err := r.state.Commands.Pop(ctx)
		if err != nil {
			return nil
		}

		if err := r.state.Unpause.Wait(ctx); err != nil {
			return nil
		}
		if err := r.state.MovementLock.Acquire(ctx); err != nil {
			return nil
		}

		if r.metrics != nil {
			r.metrics.dispatched.WithLabelValues(cmd.Kind.String()).Inc()
		}

		switch cmd.Kind {
		case protocol.CommandSnapshot:
			r.dispatchSnapshot(cmd)

		case protocol.CommandMovement:
			r.dispatchMovement(cmd)

		case protocol.CommandFinalize:
			if err := r.finalize(ctx); err != nil {
				return nil
			}
			r.logger.Info("command queue finished, router stopping")
			return nil

		default:
			r.logger.Warn("unrecognized command kind, skipping", "kind", cmd.Kind)
			r.state.MovementLock.Release()
		}
	}
}

// dispatchSnapshot hands the capture to the action processor. The lock is
// released immediately so the capture proceeds without blocking the
// handshake; the command never reaches the motor link.
func (r *Router) dispatchSnapshot(cmd protocol.Command) {
	r.logger.Info("snapshot requested", "obstacle_id", cmd.ObstacleID, "signal", cmd.Signal)
	r.state.Actions.Push(mission.Action{
		Kind:       mission.ActionSnapshot,
		ObstacleID: cmd.ObstacleID,
		Signal:     cmd.Signal,
	})
	r.state.MovementLock.Release()
}

// dispatchMovement sends the raw token to the motor controller and arms the
// acknowledgement flag. The lock stays held until the handshake handler sees
// FIN; a send failure releases it so the mission can continue.
func (r *Router) dispatchMovement(cmd protocol.Command) {
	if err := r.motor.Send(cmd.Raw); err != nil {
		r.logger.Error("motor dispatch failed", "command", cmd.Raw, "error", err)
		if r.metrics != nil {
			r.metrics.dispatchFailures.Inc()
		}
		r.state.MovementLock.Release()
		r.state.Outbound.Push(protocol.NewMessage(protocol.CategoryError,
			"Failed to send command to motor controller."))
		return
	}
	r.state.AwaitingAck.Arm()
	r.logger.Info("movement dispatched", "command", cmd.Raw)
}

// finalize closes the execution gate, reports completion, and waits for the
// stitch to finish before the router exits.
func (r *Router) finalize(ctx context.Context) error {
	r.state.Unpause.Close()
	r.state.MovementLock.Release()
	r.state.Outbound.Push(protocol.NewMessage(protocol.CategoryStatus, "finished"))
	r.state.Actions.Push(mission.Action{Kind: mission.ActionFinalize})

	if err := r.state.FinishAll.Wait(ctx); err != nil {
		return err
	}
	r.state.FinishAll.Close()
	return nil
}
