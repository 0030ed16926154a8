package operator

import (
	"context"
	"log/slog"

	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/mission"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// ReceiverDeps holds runtime dependencies for the receiver worker. Metrics
// are shared with the sender and owned by the caller so worker restarts do
// not re-register them.
type ReceiverDeps struct {
	Link    Link
	State   *mission.State
	Metrics *Metrics
	Logger  *slog.Logger
}

// Receiver consumes operator-link lines, classifies them through the
// protocol parser, and routes the resulting events onto the mission queues.
// One receiver exists per mission; the reconnect supervisor restarts it
// after a link drop.
type Receiver struct {
	link    Link
	state   *mission.State
	parser  *protocol.Parser
	logger  *slog.Logger
	metrics *Metrics
}

// NewReceiver creates a receiver worker.
func NewReceiver(deps ReceiverDeps) *Receiver {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "operator-receiver")
	}
	return &Receiver{
		link:    deps.Link,
		state:   deps.State,
		parser:  protocol.NewParser(deps.State.Pose.Get, logger),
		logger:  logger,
		metrics: deps.Metrics,
	}
}

// Run consumes lines until ctx is cancelled. A transport failure raises the
// link-dropped flag and parks the worker until the supervisor cancels it;
// protocol failures drop the packet and the loop continues.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		line, err := r.link.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.IsTransport(err) {
				r.logger.Error("operator link down", "error", err)
				if r.metrics != nil {
					r.metrics.linkDrops.Inc()
				}
				r.state.OperatorDropped.Set()
				// Park until the supervisor restarts this worker.
				<-ctx.Done()
				return nil
			}
			r.logger.Error("operator receive failed", "error", err)
			continue
		}
		if line == "" {
			continue
		}

		if r.metrics != nil {
			r.metrics.linesReceived.Inc()
		}

		event, err := r.parser.Parse(line)
		if err != nil {
			// Malformed packets are dropped, never fatal.
			r.logger.Warn("dropped operator line", "line", line, "error", err)
			if r.metrics != nil {
				r.metrics.parseErrors.Inc()
			}
			continue
		}

		r.route(event)
	}
}

// route forwards one parsed event to its destination queue or gate.
func (r *Receiver) route(event protocol.Event) {
	switch event.Kind {
	case protocol.EventObstacleAppend:
		// Already accumulated inside the parser.

	case protocol.EventPlanRequest:
		r.logger.Info("plan request from operator",
			"obstacles", len(event.Plan.Obstacles),
			"robot_x", event.Plan.RobotX,
			"robot_y", event.Plan.RobotY)
		r.state.Actions.Push(mission.Action{Kind: mission.ActionPlanRequest, Plan: event.Plan})

	case protocol.EventCommand:
		r.logger.Info("operator command queued", "kind", event.Command.Kind.String(), "raw", event.Command.Raw)
		r.state.Commands.Push(event.Command)

	case protocol.EventClear:
		r.logger.Info("clearing command and path queues")
		r.state.ClearPlan()

	case protocol.EventControlStart:
		if r.state.Commands.IsEmpty() {
			r.state.Outbound.Push(protocol.NewMessage(protocol.CategoryError, "Command queue empty (no obstacles)"))
			return
		}
		r.state.Unpause.Open()
		r.state.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo, "Starting robot on path!"))

	case protocol.EventNone:
		// Nothing to do.
	}
}
