package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/planner"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// scriptedOperator is an in-memory operator link. Tests feed lines and
// transport errors through channels and harvest sent messages.
type scriptedOperator struct {
	mu       sync.Mutex
	lines    chan string
	errs     chan error
	sent     []protocol.Message
	connects int

	// connectFailures makes the next N Connect calls fail fast.
	connectFailures int
}

func newScriptedOperator() *scriptedOperator {
	return &scriptedOperator{
		lines: make(chan string, 32),
		errs:  make(chan error, 4),
	}
}

func (o *scriptedOperator) Connect(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connects++
	if o.connectFailures > 0 {
		o.connectFailures--
		return errors.WrapTransport(errors.ErrNoConnection, "operator", "Connect", "dial")
	}
	return nil
}

func (o *scriptedOperator) failNextConnects(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connectFailures = n
}

func (o *scriptedOperator) Disconnect() error { return nil }

func (o *scriptedOperator) Send(msg protocol.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *scriptedOperator) Recv(ctx context.Context) (string, error) {
	select {
	case err := <-o.errs:
		return "", err
	case line := <-o.lines:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (o *scriptedOperator) sentMessages() []protocol.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]protocol.Message, len(o.sent))
	copy(out, o.sent)
	return out
}

func (o *scriptedOperator) connectCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.connects
}

// scriptedMotor acknowledges every command with ACK then FIN, like the real
// controller does.
type scriptedMotor struct {
	mu    sync.Mutex
	sent  []string
	lines chan string
}

func newScriptedMotor() *scriptedMotor {
	return &scriptedMotor{lines: make(chan string, 32)}
}

func (m *scriptedMotor) Connect(ctx context.Context) error { return nil }
func (m *scriptedMotor) Disconnect()                       {}

func (m *scriptedMotor) Send(token string) error {
	m.mu.Lock()
	m.sent = append(m.sent, token)
	m.mu.Unlock()
	m.lines <- "ACK"
	m.lines <- "FIN"
	return nil
}

func (m *scriptedMotor) Recv(ctx context.Context) (string, error) {
	select {
	case line := <-m.lines:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *scriptedMotor) sentTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

type scriptedPlanner struct {
	mu      sync.Mutex
	plan    *planner.Plan
	payload *protocol.PlanPayload
}

func (p *scriptedPlanner) RequestPlan(ctx context.Context, payload *protocol.PlanPayload, retrying bool) (*planner.Plan, error) {
	p.mu.Lock()
	p.payload = payload
	p.mu.Unlock()
	return p.plan, nil
}

func (p *scriptedPlanner) lastPayload() *protocol.PlanPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload
}
func (p *scriptedPlanner) RequestStitch(ctx context.Context) error { return nil }
func (p *scriptedPlanner) Healthy(ctx context.Context) error       { return nil }

type scriptedCapturer struct{ result string }

func (c *scriptedCapturer) Capture(ctx context.Context, obstacleID, signal string) (string, error) {
	return c.result, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func mustCommands(t *testing.T, tokens ...string) []protocol.Command {
	t.Helper()
	out := make([]protocol.Command, 0, len(tokens))
	for _, tok := range tokens {
		cmd, err := protocol.ParseCommand(tok)
		require.NoError(t, err)
		out = append(out, cmd)
	}
	return out
}

func startEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	e := New(deps)
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() {
		_ = e.Stop(5 * time.Second)
	})
	return e
}

func hasMessage(msgs []protocol.Message, cat protocol.Category, value string) bool {
	for _, m := range msgs {
		if m.Cat == cat && m.Value == value {
			return true
		}
	}
	return false
}

func TestMissionEndToEnd(t *testing.T) {
	op := newScriptedOperator()
	mo := newScriptedMotor()
	pl := &scriptedPlanner{plan: &planner.Plan{
		Commands: mustCommands(t, "FW10", "SNAP1_C", "TR90", "FIN"),
		Path: []protocol.Waypoint{
			{X: 2, Y: 1, Dir: protocol.North},
			{X: 2, Y: 3, Dir: protocol.East},
		},
	}}
	startEngine(t, Deps{
		Mission:  "task1",
		Operator: op,
		Motor:    mo,
		Planner:  pl,
		Capturer: &scriptedCapturer{result: "target-38"},
	})

	// Greeting goes out on connect.
	waitFor(t, func() bool {
		return hasMessage(op.sentMessages(), protocol.CategoryInfo, "You are connected to the RPi!")
	})
	assert.True(t, hasMessage(op.sentMessages(), protocol.CategoryMode, "path"))

	// Obstacles then a pose report trigger the plan request; the plan
	// response starts execution without an explicit start message.
	op.lines <- "OBSTACLE,1,5,5,S"
	op.lines <- "ROBOT,1,1,N"

	waitFor(t, func() bool { return len(mo.sentTokens()) == 2 })
	assert.Equal(t, []string{"FW10", "TR90"}, mo.sentTokens())

	payload := pl.lastPayload()
	require.NotNil(t, payload)
	require.Len(t, payload.Obstacles, 1)
	assert.Equal(t, 1, payload.Obstacles[0].ID)
	assert.Equal(t, protocol.South, payload.Obstacles[0].Dir)

	waitFor(t, func() bool {
		msgs := op.sentMessages()
		return hasMessage(msgs, protocol.CategoryImageRec, "target-38") &&
			hasMessage(msgs, protocol.CategoryStatus, "finished") &&
			hasMessage(msgs, protocol.CategoryInfo, "Images stitched!")
	})

	// Each FIN advanced the path: both waypoints were reported.
	msgs := op.sentMessages()
	assert.True(t, hasMessage(msgs, protocol.CategoryLocation, "2;1;0"))
	assert.True(t, hasMessage(msgs, protocol.CategoryLocation, "2;3;2"))
}

func TestOperatorReconnectPreservesMissionState(t *testing.T) {
	op := newScriptedOperator()
	mo := newScriptedMotor()
	pl := &scriptedPlanner{plan: &planner.Plan{
		Commands: mustCommands(t, "FW10"),
		Path:     []protocol.Waypoint{{X: 2, Y: 1, Dir: protocol.North}},
	}}
	e := startEngine(t, Deps{
		Mission:  "task1",
		Operator: op,
		Motor:    mo,
		Planner:  pl,
		Capturer: &scriptedCapturer{},
	})

	waitFor(t, func() bool { return len(op.sentMessages()) >= 2 })
	require.Equal(t, 1, op.connectCount())

	op.errs <- errors.WrapTransport(errors.ErrLinkClosed, "operator", "Recv", "reset")

	waitFor(t, func() bool { return op.connectCount() == 2 })
	waitFor(t, func() bool {
		return hasMessage(op.sentMessages(), protocol.CategoryInfo, "You are reconnected!")
	})
	assert.False(t, e.State().OperatorDropped.IsSet())

	// The restarted receiver is live: a command queued now still executes.
	e.State().Unpause.Open()
	op.lines <- "f"
	waitFor(t, func() bool { return len(mo.sentTokens()) == 1 })
	assert.Equal(t, "FW1", mo.sentTokens()[0])
}

func TestReconnectBacksOffThroughFailedDials(t *testing.T) {
	op := newScriptedOperator()
	e := startEngine(t, Deps{
		Mission:  "task1",
		Operator: op,
		Motor:    newScriptedMotor(),
		Planner:  &scriptedPlanner{plan: &planner.Plan{}},
		Capturer: &scriptedCapturer{},
	})

	waitFor(t, func() bool { return len(op.sentMessages()) >= 2 })
	require.Equal(t, 1, op.connectCount())

	op.failNextConnects(2)
	op.errs <- errors.WrapTransport(errors.ErrLinkClosed, "operator", "Recv", "reset")

	// Two failed dials, then the third attempt lands.
	waitFor(t, func() bool { return op.connectCount() == 4 })
	waitFor(t, func() bool {
		return hasMessage(op.sentMessages(), protocol.CategoryInfo, "You are reconnected!")
	})
	assert.False(t, e.State().OperatorDropped.IsSet())
}

func TestInitializeRejectsMissingWiring(t *testing.T) {
	e := New(Deps{})
	assert.Error(t, e.Initialize())
}

func TestHealthSnapshot(t *testing.T) {
	op := newScriptedOperator()
	e := startEngine(t, Deps{
		Mission:  "task1",
		Operator: op,
		Motor:    newScriptedMotor(),
		Planner:  &scriptedPlanner{plan: &planner.Plan{}},
		Capturer: &scriptedCapturer{},
	})

	health := e.Health()
	assert.Equal(t, true, health["running"])
	assert.Equal(t, false, health["operator_dropped"])
}
