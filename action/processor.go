// Package action runs the slow collaborator calls off the dispatch path:
// plan requests, image captures and the end-of-mission stitch.
package action

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/TenLetterx/RPi-MDP10/capture"
	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/metric"
	"github.com/TenLetterx/RPi-MDP10/mission"
	"github.com/TenLetterx/RPi-MDP10/planner"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// Planner is the slice of the planning client the processor needs.
type Planner interface {
	RequestPlan(ctx context.Context, payload *protocol.PlanPayload, retrying bool) (*planner.Plan, error)
	RequestStitch(ctx context.Context) error
}

// Deps holds runtime dependencies for the processor worker.
type Deps struct {
	Planner         Planner
	Capturer        capture.Capturer
	State           *mission.State
	MetricsRegistry *metric.Registry
	Logger          *slog.Logger
}

// Processor consumes queued actions one at a time. Upstream failures are
// reported to the operator and never stop the loop.
type Processor struct {
	planner  Planner
	capturer capture.Capturer
	state    *mission.State
	logger   *slog.Logger
	metrics  *Metrics
}

// New creates the action processor worker.
func New(deps Deps) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "action")
	}
	return &Processor{
		planner:  deps.Planner,
		capturer: deps.Capturer,
		state:    deps.State,
		logger:   logger,
		metrics:  newMetrics(deps.MetricsRegistry),
	}
}

// Run processes actions until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		act, err := p.state.Actions.Pop(ctx)
		if err != nil {
			return nil
		}
		if p.metrics != nil {
			p.metrics.processed.WithLabelValues(act.Kind.String()).Inc()
		}

		switch act.Kind {
		case mission.ActionPlanRequest:
			p.requestPlan(ctx, act)
		case mission.ActionSnapshot:
			p.snapshot(ctx, act)
		case mission.ActionFinalize:
			p.stitch(ctx)
		}
	}
}

// requestPlan adopts the reported pose, calls the planning service, and on
// success swaps in the new command and waypoint queues and opens the
// execution gate. An empty plan clears the queues and keeps the gate shut.
func (p *Processor) requestPlan(ctx context.Context, act mission.Action) {
	p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo, "Requesting path from algo..."))
	p.state.Pose.Set(protocol.Pose{X: act.Plan.RobotX, Y: act.Plan.RobotY, Dir: act.Plan.RobotDir})

	plan, err := p.planner.RequestPlan(ctx, act.Plan, act.Retrying)
	if err != nil {
		if stderrors.Is(err, errors.ErrEmptyPlan) {
			p.logger.Warn("planner returned no commands, queues cleared")
			p.state.ClearPlan()
			return
		}
		p.logger.Error("plan request failed", "error", err)
		p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryError,
			"Error when requesting path from Algo API."))
		return
	}

	p.state.ClearPlan()
	p.state.Commands.Replace(plan.Commands)
	p.state.Path.Replace(plan.Path)

	// A fresh plan starts executing without waiting for an explicit start.
	p.state.Unpause.Open()
	p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo,
		"Commands and path received Algo API. Starting execution..."))
}

// snapshot captures one image and reports the recognition result verbatim.
// The movement lock is released afterwards regardless of outcome so a
// capture failure can never wedge the dispatcher.
func (p *Processor) snapshot(ctx context.Context, act mission.Action) {
	p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo,
		fmt.Sprintf("Capturing image for obstacle id: %s", act.ObstacleID)))

	result, err := p.capturer.Capture(ctx, act.ObstacleID, act.Signal)
	p.state.MovementLock.Release()
	if err != nil {
		p.logger.Error("image capture failed", "obstacle_id", act.ObstacleID, "error", err)
		if p.metrics != nil {
			p.metrics.captureFailures.Inc()
		}
		p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryError,
			fmt.Sprintf("Image capture failed for obstacle id: %s", act.ObstacleID)))
		return
	}

	p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryImageRec, result))
}

// stitch asks the service to assemble the captured images and, on success,
// opens the finish gate so the router can wind down.
func (p *Processor) stitch(ctx context.Context) {
	if err := p.planner.RequestStitch(ctx); err != nil {
		p.logger.Error("stitch request failed", "error", err)
		p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryError,
			"Error when requesting stitch from API."))
		return
	}
	p.state.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo, "Images stitched!"))
	p.state.FinishAll.Open()
}
