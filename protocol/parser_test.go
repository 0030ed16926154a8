package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TenLetterx/RPi-MDP10/errors"
)

func TestParser_ObstaclesThenPoseReport(t *testing.T) {
	p := NewParser(nil, nil)

	ev, err := p.Parse("OBSTACLE,1,3,7,N")
	require.NoError(t, err)
	assert.Equal(t, EventObstacleAppend, ev.Kind)
	assert.Equal(t, ObstacleRecord{ID: 1, X: 3, Y: 7, Dir: North}, ev.Obstacle)

	ev, err = p.Parse("OBSTACLE,2,10,10,E")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Accumulated())

	ev, err = p.Parse("ROBOT,1,1,N")
	require.NoError(t, err)
	require.Equal(t, EventPlanRequest, ev.Kind)
	require.NotNil(t, ev.Plan)

	assert.Equal(t, 1, ev.Plan.RobotX)
	assert.Equal(t, 1, ev.Plan.RobotY)
	assert.Equal(t, North, ev.Plan.RobotDir)
	assert.Equal(t, []ObstacleRecord{
		{ID: 1, X: 3, Y: 7, Dir: North},
		{ID: 2, X: 10, Y: 10, Dir: East},
	}, ev.Plan.Obstacles)

	// Accumulator must be empty immediately after the flush.
	assert.Equal(t, 0, p.Accumulated())
}

func TestParser_OutOfRangeCoordinatesRejected(t *testing.T) {
	p := NewParser(nil, nil)

	_, err := p.Parse("OBSTACLE,1,5,5,N")
	require.NoError(t, err)

	cases := []string{
		"OBSTACLE,2,20,5,N",
		"OBSTACLE,2,5,20,N",
		"OBSTACLE,2,-1,5,N",
		"ROBOT,20,0,N",
		"ROBOT,0,-3,S",
	}
	for _, line := range cases {
		_, err := p.Parse(line)
		assert.Error(t, err, line)
		assert.True(t, errors.IsProtocol(err), line)
	}

	// Rejected packets leave the accumulator unchanged.
	assert.Equal(t, 1, p.Accumulated())
}

func TestParser_BeginFlushUsesCurrentPose(t *testing.T) {
	pose := Pose{X: 4, Y: 9, Dir: West}
	p := NewParser(func() Pose { return pose }, nil)

	_, err := p.Parse("OBSTACLE,7,2,2,S")
	require.NoError(t, err)

	ev, err := p.Parse("BEGIN")
	require.NoError(t, err)
	require.Equal(t, EventPlanRequest, ev.Kind)
	assert.Equal(t, 4, ev.Plan.RobotX)
	assert.Equal(t, 9, ev.Plan.RobotY)
	assert.Equal(t, West, ev.Plan.RobotDir)
	assert.Len(t, ev.Plan.Obstacles, 1)
	assert.Equal(t, 0, p.Accumulated())
}

func TestParser_BeginWithEmptyAccumulator(t *testing.T) {
	p := NewParser(nil, nil)

	ev, err := p.Parse("BEGIN")
	assert.Error(t, err)
	assert.True(t, errors.IsProtocol(err))
	assert.Equal(t, EventNone, ev.Kind)
}

func TestParser_JoystickShorthand(t *testing.T) {
	p := NewParser(nil, nil)

	cases := map[string]string{
		"f":  "FW1",
		"b":  "BW1",
		"fr": "TR90",
		"fl": "TL90",
		"br": "BR",
		"bl": "BL",
	}
	for token, primitive := range cases {
		ev, err := p.Parse(token)
		require.NoError(t, err, token)
		require.Equal(t, EventCommand, ev.Kind, token)
		assert.Equal(t, CommandMovement, ev.Command.Kind, token)
		assert.Equal(t, primitive, ev.Command.Raw, token)
	}
}

func TestParser_DirectMotorTokensUppercased(t *testing.T) {
	p := NewParser(nil, nil)

	ev, err := p.Parse("fw10")
	require.NoError(t, err)
	require.Equal(t, EventCommand, ev.Kind)
	assert.Equal(t, "FW10", ev.Command.Raw)

	ev, err = p.Parse("tl90")
	require.NoError(t, err)
	assert.Equal(t, "TL90", ev.Command.Raw)
}

func TestParser_Clear(t *testing.T) {
	p := NewParser(nil, nil)

	ev, err := p.Parse("CLEAR")
	require.NoError(t, err)
	assert.Equal(t, EventClear, ev.Kind)

	ev, err = p.Parse("clear")
	require.NoError(t, err)
	assert.Equal(t, EventClear, ev.Kind)
}

func TestParser_UnrecognizedLineDropped(t *testing.T) {
	p := NewParser(nil, nil)

	_, err := p.Parse("HELLO,WORLD")
	assert.Error(t, err)
	assert.True(t, errors.IsProtocol(err))

	_, err = p.Parse("")
	assert.Error(t, err)
	assert.True(t, errors.IsProtocol(err))
}

func TestParser_StructuredObstacleEnvelope(t *testing.T) {
	p := NewParser(nil, nil)

	line := `{"cat":"obstacle","value":{"robot_x":1,"robot_y":2,"robot_dir":"E","obstacles":[{"id":3,"x":5,"y":6,"d":"S"}]}}`
	ev, err := p.Parse(line)
	require.NoError(t, err)
	require.Equal(t, EventPlanRequest, ev.Kind)

	assert.Equal(t, 1, ev.Plan.RobotX)
	assert.Equal(t, East, ev.Plan.RobotDir)
	require.Len(t, ev.Plan.Obstacles, 1)
	assert.Equal(t, South, ev.Plan.Obstacles[0].Dir)

	// Structured envelopes bypass the accumulator entirely.
	assert.Equal(t, 0, p.Accumulated())
}

func TestParser_StructuredEnvelopeRangeChecked(t *testing.T) {
	p := NewParser(nil, nil)

	line := `{"cat":"obstacle","value":{"robot_x":25,"robot_y":2,"robot_dir":0,"obstacles":[]}}`
	_, err := p.Parse(line)
	assert.Error(t, err)
	assert.True(t, errors.IsProtocol(err))

	line = `{"cat":"obstacle","value":{"robot_x":1,"robot_y":2,"robot_dir":0,"obstacles":[{"id":1,"x":3,"y":42,"d":0}]}}`
	_, err = p.Parse(line)
	assert.Error(t, err)
}

func TestParser_ControlStart(t *testing.T) {
	p := NewParser(nil, nil)

	ev, err := p.Parse(`{"cat":"control","value":"start"}`)
	require.NoError(t, err)
	assert.Equal(t, EventControlStart, ev.Kind)

	_, err = p.Parse(`{"cat":"control","value":"pause"}`)
	assert.Error(t, err)
}

func TestParser_UnknownEnvelopeCategory(t *testing.T) {
	p := NewParser(nil, nil)

	_, err := p.Parse(`{"cat":"weather","value":"sunny"}`)
	assert.Error(t, err)
	assert.True(t, errors.IsProtocol(err))
}
