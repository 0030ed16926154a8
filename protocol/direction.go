package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/TenLetterx/RPi-MDP10/errors"
)

// Direction is a robot or obstacle heading, normalized to the fixed code set
// {0, 2, 4, 6} used by the planner and the operator wire format.
type Direction int

// Heading codes. Odd codes do not exist on the wire.
const (
	North Direction = 0
	East  Direction = 2
	South Direction = 4
	West  Direction = 6
)

// String returns the compass designator for the direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return strconv.Itoa(int(d))
	}
}

// Valid reports whether the direction is one of the four canonical codes.
func (d Direction) Valid() bool {
	switch d {
	case North, East, South, West:
		return true
	}
	return false
}

// ParseDirection normalizes a compass designator ("N", "north") or a numeric
// code ("0", "2") to a canonical Direction. Unrecognized designators
// normalize to North, mirroring the tolerant default of the operator
// protocol; ok is false so callers can log the anomaly.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH", "0":
		return North, true
	case "E", "EAST", "2":
		return East, true
	case "S", "SOUTH", "4":
		return South, true
	case "W", "WEST", "6":
		return West, true
	}
	return North, false
}

// MarshalJSON emits the numeric heading code.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(d))
}

// UnmarshalJSON accepts either a numeric code or a string designator, the two
// encodings operator envelopes are observed to carry.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		dir := Direction(n)
		if !dir.Valid() {
			return errors.WrapProtocol(
				fmt.Errorf("heading code %d: %w", n, errors.ErrInvalidDirection),
				"Direction", "UnmarshalJSON", "code validation")
		}
		*d = dir
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.WrapProtocol(err, "Direction", "UnmarshalJSON", "decode")
	}
	dir, ok := ParseDirection(s)
	if !ok {
		return errors.WrapProtocol(
			fmt.Errorf("designator %q: %w", s, errors.ErrInvalidDirection),
			"Direction", "UnmarshalJSON", "designator validation")
	}
	*d = dir
	return nil
}
