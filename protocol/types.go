// Package protocol implements the operator-link wire protocol: outbound
// status messages, the inbound line parser with its obstacle accumulator,
// and the tagged Command values the rest of the mission consumes. Commands
// are constructed exactly once at this boundary; nothing downstream
// re-interprets their wire representation.
package protocol

import "fmt"

// GridMax is the largest valid arena coordinate on either axis.
const GridMax = 19

// InGrid reports whether a coordinate pair lies inside the arena.
func InGrid(x, y int) bool {
	return x >= 0 && x <= GridMax && y >= 0 && y <= GridMax
}

// Pose is the robot position and heading.
type Pose struct {
	X   int       `json:"x"`
	Y   int       `json:"y"`
	Dir Direction `json:"d"`
}

// Valid reports whether the pose lies inside the arena with a canonical heading.
func (p Pose) Valid() bool {
	return InGrid(p.X, p.Y) && p.Dir.Valid()
}

func (p Pose) String() string {
	return fmt.Sprintf("(%d,%d,%s)", p.X, p.Y, p.Dir)
}

// ObstacleRecord is one reported obstacle. Immutable once created.
type ObstacleRecord struct {
	ID  int       `json:"id"`
	X   int       `json:"x"`
	Y   int       `json:"y"`
	Dir Direction `json:"d"`
}

// Waypoint is one step of a planned path, reported back to the operator as a
// location update on each motor FIN.
type Waypoint struct {
	X   int       `json:"x"`
	Y   int       `json:"y"`
	Dir Direction `json:"d"`
}

// PlanPayload is the flushed obstacle accumulator plus the robot pose,
// consumed exactly once by the path-planning client.
type PlanPayload struct {
	RobotX    int              `json:"robot_x"`
	RobotY    int              `json:"robot_y"`
	RobotDir  Direction        `json:"robot_dir"`
	Obstacles []ObstacleRecord `json:"obstacles"`
}
