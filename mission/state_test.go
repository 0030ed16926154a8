package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TenLetterx/RPi-MDP10/protocol"
)

func TestNewStateStartsGated(t *testing.T) {
	s := NewState()

	assert.False(t, s.Unpause.IsOpen())
	assert.False(t, s.FinishAll.IsOpen())
	assert.False(t, s.AwaitingAck.Armed())
	assert.False(t, s.OperatorDropped.IsSet())
	assert.False(t, s.MovementLock.Held())
	assert.True(t, s.Commands.IsEmpty())
	assert.True(t, s.Path.IsEmpty())
	assert.True(t, s.Outbound.IsEmpty())
	assert.True(t, s.Actions.IsEmpty())
}

func TestClearPlanDropsCommandsAndPathOnly(t *testing.T) {
	s := NewState()
	cmd, err := protocol.ParseCommand("FW10")
	require.NoError(t, err)

	s.Commands.Push(cmd)
	s.Path.Push(protocol.Waypoint{X: 1, Y: 1})
	s.Outbound.Push(protocol.NewMessage(protocol.CategoryInfo, "hello"))
	s.Actions.Push(Action{Kind: ActionFinalize})

	s.ClearPlan()

	assert.True(t, s.Commands.IsEmpty())
	assert.True(t, s.Path.IsEmpty())
	// Status traffic and pending actions survive a plan swap.
	assert.Equal(t, 1, s.Outbound.Len())
	assert.Equal(t, 1, s.Actions.Len())
}

func TestAckFlagDisarmReportsTransition(t *testing.T) {
	var f AckFlag
	assert.False(t, f.Disarm())

	f.Arm()
	assert.True(t, f.Armed())
	assert.True(t, f.Disarm())
	// A second disarm is the duplicate-ACK case.
	assert.False(t, f.Disarm())
}

func TestPoseStore(t *testing.T) {
	var p PoseStore
	assert.Equal(t, protocol.Pose{}, p.Get())

	p.Set(protocol.Pose{X: 3, Y: 4, Dir: protocol.West})
	got := p.Get()
	assert.Equal(t, 3, got.X)
	assert.Equal(t, 4, got.Y)
	assert.Equal(t, protocol.West, got.Dir)
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "plan-request", ActionPlanRequest.String())
	assert.Equal(t, "snapshot", ActionSnapshot.String())
	assert.Equal(t, "finalize", ActionFinalize.String())
}
