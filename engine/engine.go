// Package engine assembles and runs the mission: it owns the shared state,
// starts the worker set, and supervises operator-link reconnection.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TenLetterx/RPi-MDP10/action"
	"github.com/TenLetterx/RPi-MDP10/capture"
	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/metric"
	"github.com/TenLetterx/RPi-MDP10/mission"
	"github.com/TenLetterx/RPi-MDP10/motor"
	"github.com/TenLetterx/RPi-MDP10/operator"
	"github.com/TenLetterx/RPi-MDP10/pkg/retry"
	"github.com/TenLetterx/RPi-MDP10/protocol"
	"github.com/TenLetterx/RPi-MDP10/router"
	"github.com/TenLetterx/RPi-MDP10/telemetry"
)

// Planner is the slice of the planning client the engine needs beyond what
// the action processor uses.
type Planner interface {
	action.Planner
	Healthy(ctx context.Context) error
}

// Deps holds everything the engine wires together.
type Deps struct {
	Mission         string
	Operator        operator.Link
	Motor           motor.Link
	Planner         Planner
	Capturer        capture.Capturer
	Mirror          *telemetry.Mirror
	MetricsRegistry *metric.Registry
	Logger          *slog.Logger
}

// worker is one supervised goroutine with its own cancel scope.
type worker struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine runs one mission. Lifecycle: Initialize, Start, Stop.
type Engine struct {
	deps   Deps
	state  *mission.State
	logger *slog.Logger

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// The operator pair is tracked separately so the reconnect supervisor
	// can bounce exactly those two workers.
	opMu      sync.Mutex
	opPair    []*worker
	opMetrics *operator.Metrics
	restarts  atomic.Int64
}

// New creates an engine.
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "engine")
	}
	return &Engine{
		deps:      deps,
		state:     mission.NewState(),
		logger:    logger,
		opMetrics: operator.NewMetrics(deps.MetricsRegistry),
	}
}

// State exposes the shared mission state, mainly for tests and health
// reporting.
func (e *Engine) State() *mission.State {
	return e.state
}

// Initialize validates the wiring but opens no links.
func (e *Engine) Initialize() error {
	if e.deps.Operator == nil {
		return errors.Wrap(fmt.Errorf("nil operator link"), "engine", "Initialize", "wiring check")
	}
	if e.deps.Motor == nil {
		return errors.Wrap(fmt.Errorf("nil motor link"), "engine", "Initialize", "wiring check")
	}
	if e.deps.Planner == nil {
		return errors.Wrap(fmt.Errorf("nil planner client"), "engine", "Initialize", "wiring check")
	}
	if e.deps.Capturer == nil {
		return errors.Wrap(fmt.Errorf("nil capturer"), "engine", "Initialize", "wiring check")
	}
	return nil
}

// Start connects the links, probes the planning service, and launches the
// worker set. It blocks until the operator attaches or ctx ends.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running.Load() {
		return nil
	}

	if err := e.deps.Operator.Connect(ctx); err != nil {
		return errors.WrapTransport(err, "engine", "Start", "operator connect")
	}
	if err := e.deps.Motor.Connect(ctx); err != nil {
		_ = e.deps.Operator.Disconnect()
		return errors.WrapTransport(err, "engine", "Start", "motor connect")
	}

	if err := e.deps.Planner.Healthy(ctx); err != nil {
		// Advisory only: the service may come up after the robot does.
		e.logger.Warn("planning service health check failed", "error", err)
	} else {
		e.logger.Info("planning service reachable")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running.Store(true)

	e.startCore(runCtx)
	e.startOperatorPair(runCtx)
	e.spawn(runCtx, "reconnect-supervisor", e.superviseReconnect)

	e.announceConnected("You are connected to the RPi!")
	e.deps.Mirror.Publish("mission_started", map[string]any{"mission": e.deps.Mission})
	e.logger.Info("mission started", "mission", e.deps.Mission)
	return nil
}

// Stop cancels all workers and tears the links down.
func (e *Engine) Stop(timeout time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running.Load() {
		return nil
	}
	e.running.Store(false)
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		return errors.Wrap(fmt.Errorf("stop timeout after %v", timeout),
			"engine", "Stop", "graceful shutdown")
	}

	_ = e.deps.Operator.Disconnect()
	e.deps.Motor.Disconnect()
	e.deps.Mirror.Publish("mission_stopped", map[string]any{"mission": e.deps.Mission})
	e.logger.Info("mission stopped", "mission", e.deps.Mission)
	return nil
}

// Health reports liveness facts for the health endpoint and logs.
func (e *Engine) Health() map[string]any {
	return map[string]any{
		"running":          e.running.Load(),
		"operator_dropped": e.state.OperatorDropped.IsSet(),
		"executing":        e.state.Unpause.IsOpen(),
		"movement_locked":  e.state.MovementLock.Held(),
		"commands_queued":  e.state.Commands.Len(),
		"reconnects":       e.restarts.Load(),
	}
}

// startCore launches the workers that survive operator reconnects.
func (e *Engine) startCore(ctx context.Context) {
	handshake := motor.NewHandshake(motor.HandshakeDeps{
		Link:            e.deps.Motor,
		State:           e.state,
		MetricsRegistry: e.deps.MetricsRegistry,
		Logger:          e.logger.With("component", "motor-handshake"),
	})
	dispatch := router.New(router.Deps{
		Motor:           e.deps.Motor,
		State:           e.state,
		MetricsRegistry: e.deps.MetricsRegistry,
		Logger:          e.logger.With("component", "router"),
	})
	processor := action.New(action.Deps{
		Planner:         e.deps.Planner,
		Capturer:        e.deps.Capturer,
		State:           e.state,
		MetricsRegistry: e.deps.MetricsRegistry,
		Logger:          e.logger.With("component", "action"),
	})

	e.spawn(ctx, "motor-handshake", handshake.Run)
	e.spawn(ctx, "router", dispatch.Run)
	e.spawn(ctx, "action", processor.Run)
}

// startOperatorPair launches the receiver and sender under their own cancel
// scopes so the supervisor can bounce them together.
func (e *Engine) startOperatorPair(ctx context.Context) {
	recv := operator.NewReceiver(operator.ReceiverDeps{
		Link:    e.deps.Operator,
		State:   e.state,
		Metrics: e.opMetrics,
		Logger:  e.logger.With("component", "operator-receiver"),
	})
	send := operator.NewSender(operator.SenderDeps{
		Link:    e.deps.Operator,
		State:   e.state,
		Metrics: e.opMetrics,
		Logger:  e.logger.With("component", "operator-sender"),
	})

	e.opMu.Lock()
	e.opPair = []*worker{
		e.spawnScoped(ctx, "operator-receiver", recv.Run),
		e.spawnScoped(ctx, "operator-sender", send.Run),
	}
	e.opMu.Unlock()
}

// spawn runs fn under the engine waitgroup.
func (e *Engine) spawn(ctx context.Context, name string, fn func(context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := fn(ctx); err != nil {
			e.logger.Error("worker exited with error", "worker", name, "error", err)
			return
		}
		e.logger.Debug("worker exited", "worker", name)
	}()
}

// spawnScoped runs fn under its own child context and returns a handle the
// supervisor can cancel and join.
func (e *Engine) spawnScoped(ctx context.Context, name string, fn func(context.Context) error) *worker {
	childCtx, cancel := context.WithCancel(ctx)
	w := &worker{name: name, cancel: cancel, done: make(chan struct{})}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(w.done)
		if err := fn(childCtx); err != nil {
			e.logger.Error("worker exited with error", "worker", name, "error", err)
		}
	}()
	return w
}

// superviseReconnect waits for the link-dropped flag, bounces the operator
// pair, and re-establishes the link. Mission state is untouched throughout:
// queued commands keep executing against the motor controller while the
// operator is away.
func (e *Engine) superviseReconnect(ctx context.Context) error {
	for {
		if err := e.state.OperatorDropped.Wait(ctx); err != nil {
			return nil
		}
		e.logger.Error("operator link down, reconnecting")
		e.deps.Mirror.Publish("operator_dropped", nil)

		e.opMu.Lock()
		pair := e.opPair
		e.opMu.Unlock()
		for _, w := range pair {
			w.cancel()
		}
		for _, w := range pair {
			<-w.done
		}

		_ = e.deps.Operator.Disconnect()
		err := retry.Do(ctx, retry.Persistent(), func() error {
			return e.deps.Operator.Connect(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			e.logger.Error("operator reconnect failed", "error", err)
			continue
		}

		e.startOperatorPair(ctx)
		e.state.OperatorDropped.Clear()
		e.restarts.Add(1)

		e.announceConnected("You are reconnected!")
		e.deps.Mirror.Publish("operator_reconnected", map[string]any{
			"reconnects": e.restarts.Load(),
		})
		e.logger.Info("operator link restored")
	}
}

// announceConnected queues the greeting and mode messages the operator UI
// expects after every (re)connect.
func (e *Engine) announceConnected(greeting string) {
	e.state.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo, greeting))
	e.state.Outbound.Push(protocol.NewMessage(protocol.CategoryMode, "path"))
}
