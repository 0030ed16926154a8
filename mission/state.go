// Package mission holds the shared mission state and the controller that
// wires the concurrent workers together. The state is the complete set of
// synchronization primitives the workers communicate through: one movement
// lock, two gates, the ack flag, the link-dropped flag, and the FIFO queues.
// It is constructed once and injected into every worker; there are no
// ad-hoc globals.
package mission

import (
	"sync"
	"sync/atomic"

	"github.com/TenLetterx/RPi-MDP10/pkg/gate"
	"github.com/TenLetterx/RPi-MDP10/pkg/queue"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// ActionKind tags the high-level actions the action processor consumes.
type ActionKind int

const (
	// ActionPlanRequest updates the pose from the payload, then requests a
	// motion plan from the planner.
	ActionPlanRequest ActionKind = iota
	// ActionSnapshot invokes the capture collaborator and reports the
	// recognition result.
	ActionSnapshot
	// ActionFinalize requests the stitch call and opens the finish gate on
	// success.
	ActionFinalize
)

// String returns the action name.
func (k ActionKind) String() string {
	switch k {
	case ActionPlanRequest:
		return "plan-request"
	case ActionSnapshot:
		return "snapshot"
	case ActionFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Action is one unit of work for the action processor.
type Action struct {
	Kind ActionKind

	// Plan is set for ActionPlanRequest.
	Plan *protocol.PlanPayload

	// ObstacleID and Signal are set for ActionSnapshot.
	ObstacleID string
	Signal     string

	// Retrying marks a re-issued plan request.
	Retrying bool
}

// AckFlag tracks whether a dispatched motor command is still waiting for its
// hardware acknowledgement. Duplicate ACKs while clear are ignored.
type AckFlag struct {
	v atomic.Bool
}

// Arm marks a command as awaiting acknowledgement.
func (f *AckFlag) Arm() { f.v.Store(true) }

// Disarm clears the flag and reports whether it was armed. A false return
// means the ACK was a duplicate.
func (f *AckFlag) Disarm() bool { return f.v.Swap(false) }

// Armed reports whether an acknowledgement is outstanding.
func (f *AckFlag) Armed() bool { return f.v.Load() }

// PoseStore is the robot's current pose behind a mutex. Its writers (the
// action processor on obstacle payloads, the handshake handler via waypoint
// consumption) are serialized by the handshake protocol, but the store keeps
// access race-free for readers such as the plan-request builder.
type PoseStore struct {
	mu   sync.RWMutex
	pose protocol.Pose
}

// Get returns the current pose.
func (s *PoseStore) Get() protocol.Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pose
}

// Set replaces the current pose.
func (s *PoseStore) Set(p protocol.Pose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pose = p
}

// State is the complete shared state of one mission.
type State struct {
	Pose *PoseStore

	// MovementLock gates the motor link: at most one movement in flight.
	MovementLock *MovementLock

	// Unpause is open while the router may dispatch queued commands.
	Unpause *gate.Gate

	// FinishAll opens once stitching completes, letting the mission end.
	FinishAll *gate.Gate

	// AwaitingAck is armed on dispatch and disarmed on the first ACK.
	AwaitingAck *AckFlag

	// OperatorDropped is raised by operator-facing workers on transport
	// failure and serviced by the reconnect supervisor.
	OperatorDropped *gate.Flag

	Commands *queue.Queue[protocol.Command]
	Path     *queue.Queue[protocol.Waypoint]
	Outbound *queue.Queue[protocol.Message]
	Actions  *queue.Queue[Action]
}

// NewState creates mission state with both gates closed, the lock free, and
// all queues empty.
func NewState() *State {
	return &State{
		Pose:            &PoseStore{},
		MovementLock:    NewMovementLock(),
		Unpause:         gate.New(),
		FinishAll:       gate.New(),
		AwaitingAck:     &AckFlag{},
		OperatorDropped: gate.NewFlag(),
		Commands:        queue.New[protocol.Command](),
		Path:            queue.New[protocol.Waypoint](),
		Outbound:        queue.New[protocol.Message](),
		Actions:         queue.New[Action](),
	}
}

// ClearPlan atomically clears the command and path queues. Used by the CLEAR
// operator command and before repopulating from a fresh plan response.
func (s *State) ClearPlan() {
	s.Commands.Clear()
	s.Path.Clear()
}
