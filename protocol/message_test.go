package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_WireString(t *testing.T) {
	m := NewMessage(CategoryInfo, "Robot is ready!")
	assert.Equal(t, "info;Robot is ready!", m.WireString())

	m = NewMessage(CategoryStatus, "finished")
	assert.Equal(t, "status;finished", m.WireString())
}

func TestMessage_LocationSerialization(t *testing.T) {
	m := NewLocation(Waypoint{X: 3, Y: 12, Dir: West})
	assert.Equal(t, "location;3;12;6", m.WireString())
}

func TestMessage_Jsonify(t *testing.T) {
	m := NewMessage(CategoryError, "Command queue empty (no obstacles)")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(m.Jsonify()), &decoded))
	assert.Equal(t, "error", decoded["cat"])
	assert.Equal(t, "Command queue empty (no obstacles)", decoded["value"])
}

func TestDirection_Parse(t *testing.T) {
	cases := map[string]Direction{
		"N": North, "north": North, "0": North,
		"E": East, "EAST": East, "2": East,
		"s": South, "4": South,
		"W": West, "West": West, "6": West,
	}
	for in, want := range cases {
		got, ok := ParseDirection(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseDirection("NE")
	assert.False(t, ok)
	assert.Equal(t, North, got)
}

func TestDirection_UnmarshalJSON(t *testing.T) {
	var d Direction
	require.NoError(t, json.Unmarshal([]byte(`4`), &d))
	assert.Equal(t, South, d)

	require.NoError(t, json.Unmarshal([]byte(`"E"`), &d))
	assert.Equal(t, East, d)

	assert.Error(t, json.Unmarshal([]byte(`3`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"NE"`), &d))
}

func TestPose_Valid(t *testing.T) {
	assert.True(t, Pose{X: 0, Y: 19, Dir: North}.Valid())
	assert.False(t, Pose{X: 20, Y: 0, Dir: North}.Valid())
	assert.False(t, Pose{X: 0, Y: 0, Dir: Direction(3)}.Valid())
}
