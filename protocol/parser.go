package protocol

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/TenLetterx/RPi-MDP10/errors"
)

// EventKind identifies the typed event a parsed operator line produced.
type EventKind int

const (
	// EventNone means the line produced no actionable event (for example a
	// begin-flush with an empty accumulator).
	EventNone EventKind = iota
	// EventObstacleAppend means one obstacle was added to the accumulator.
	EventObstacleAppend
	// EventPlanRequest carries a flushed obstacle payload bound for the
	// path-planning client.
	EventPlanRequest
	// EventCommand carries a tagged command bound for the command queue.
	EventCommand
	// EventClear requests clearing of the command and path queues.
	EventClear
	// EventControlStart is the explicit operator request to open the
	// execution gate.
	EventControlStart
)

// Event is the typed result of parsing one operator-link line.
type Event struct {
	Kind     EventKind
	Obstacle ObstacleRecord // EventObstacleAppend
	Plan     *PlanPayload   // EventPlanRequest
	Command  Command        // EventCommand
}

// envelope is the structured (JSON) form of an operator line.
type envelope struct {
	Cat   Category        `json:"cat"`
	Value json.RawMessage `json:"value"`
}

// joystickMap maps the bare joystick shorthand tokens to motor primitives.
var joystickMap = map[string]string{
	"f":  "FW1",
	"b":  "BW1",
	"fr": "TR90",
	"fl": "TL90",
	"br": "BR",
	"bl": "BL",
}

// directMotorPrefixes are the operator tokens forwarded to the motor
// controller verbatim (uppercased).
var directMotorPrefixes = []string{"fw", "bw", "tl", "tr"}

// Parser classifies operator-link lines into typed events and accumulates
// obstacle reports until a flush token arrives. It is owned by the single
// operator-receiver worker and is not safe for concurrent use.
type Parser struct {
	pose   func() Pose // current pose, used by begin-flush payloads
	accum  []ObstacleRecord
	logger *slog.Logger
}

// NewParser creates a parser. pose supplies the robot's current pose for
// begin-flush payloads; a nil pose func defaults to the zero pose.
func NewParser(pose func() Pose, logger *slog.Logger) *Parser {
	if pose == nil {
		pose = func() Pose { return Pose{} }
	}
	if logger == nil {
		logger = slog.Default().With("component", "parser")
	}
	return &Parser{pose: pose, logger: logger}
}

// Accumulated returns the number of obstacles currently accumulated.
func (p *Parser) Accumulated() int {
	return len(p.accum)
}

// Parse classifies one line from the operator link. Structured-object decode
// is attempted first; on failure the line falls back to comma-delimited
// legacy parsing evaluated in fixed priority. Parse errors drop the packet
// and never mutate accumulator or pose state.
func (p *Parser) Parse(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, errors.WrapProtocol(
			fmt.Errorf("empty line: %w", errors.ErrMalformedPacket),
			"parser", "Parse", "classify")
	}

	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err == nil && env.Cat != "" {
		return p.parseEnvelope(env)
	}

	return p.parseLegacy(line)
}

// parseEnvelope handles the structured {"cat": ..., "value": ...} form.
func (p *Parser) parseEnvelope(env envelope) (Event, error) {
	switch env.Cat {
	case CategoryObstacle:
		var payload PlanPayload
		if err := json.Unmarshal(env.Value, &payload); err != nil {
			return Event{}, errors.WrapProtocol(err, "parser", "parseEnvelope", "obstacle payload decode")
		}
		if !InGrid(payload.RobotX, payload.RobotY) {
			return Event{}, errors.WrapProtocol(
				fmt.Errorf("robot (%d,%d): %w", payload.RobotX, payload.RobotY, errors.ErrInvalidCoordinate),
				"parser", "parseEnvelope", "robot range check")
		}
		for _, obs := range payload.Obstacles {
			if !InGrid(obs.X, obs.Y) {
				return Event{}, errors.WrapProtocol(
					fmt.Errorf("obstacle %d (%d,%d): %w", obs.ID, obs.X, obs.Y, errors.ErrInvalidCoordinate),
					"parser", "parseEnvelope", "obstacle range check")
			}
		}
		return Event{Kind: EventPlanRequest, Plan: &payload}, nil

	case CategoryControl:
		var value string
		if err := json.Unmarshal(env.Value, &value); err != nil {
			return Event{}, errors.WrapProtocol(err, "parser", "parseEnvelope", "control value decode")
		}
		if value != "start" {
			return Event{}, errors.WrapProtocol(
				fmt.Errorf("control %q: %w", value, errors.ErrUnrecognizedToken),
				"parser", "parseEnvelope", "control classify")
		}
		return Event{Kind: EventControlStart}, nil
	}

	return Event{}, errors.WrapProtocol(
		fmt.Errorf("category %q: %w", env.Cat, errors.ErrUnrecognizedToken),
		"parser", "parseEnvelope", "category classify")
}

// parseLegacy handles the comma-delimited and bare-token line forms, in the
// protocol's fixed priority order.
func (p *Parser) parseLegacy(line string) (Event, error) {
	parts := strings.Split(line, ",")
	head := strings.ToUpper(parts[0])

	switch {
	case head == "ROBOT":
		return p.parsePoseReport(parts)

	case head == "OBSTACLE":
		return p.parseObstacle(parts)

	case head == "BEGIN":
		return p.flushOnBegin()
	}

	lower := strings.ToLower(line)
	if primitive, ok := joystickMap[lower]; ok {
		cmd, err := ParseCommand(primitive)
		if err != nil {
			return Event{}, err
		}
		p.logger.Debug("joystick shorthand", "token", line, "primitive", primitive)
		return Event{Kind: EventCommand, Command: cmd}, nil
	}

	for _, prefix := range directMotorPrefixes {
		if strings.HasPrefix(lower, prefix) {
			cmd, err := ParseCommand(strings.ToUpper(line))
			if err != nil {
				return Event{}, err
			}
			return Event{Kind: EventCommand, Command: cmd}, nil
		}
	}

	if strings.ToUpper(line) == "CLEAR" {
		return Event{Kind: EventClear}, nil
	}

	return Event{}, errors.WrapProtocol(
		fmt.Errorf("line %q: %w", line, errors.ErrUnrecognizedToken),
		"parser", "parseLegacy", "classify")
}

// parsePoseReport handles "ROBOT,x,y,dir": a pose report flushes the
// accumulator into one combined plan payload.
func (p *Parser) parsePoseReport(parts []string) (Event, error) {
	if len(parts) != 4 {
		return Event{}, errors.WrapProtocol(
			fmt.Errorf("ROBOT packet with %d fields: %w", len(parts), errors.ErrMalformedPacket),
			"parser", "parsePoseReport", "arity check")
	}
	x, y, err := p.parseCoords(parts[1], parts[2], "parsePoseReport")
	if err != nil {
		return Event{}, err
	}
	dir, ok := ParseDirection(parts[3])
	if !ok {
		p.logger.Warn("unknown robot heading, defaulting to north", "designator", parts[3])
	}

	payload := &PlanPayload{
		RobotX:    x,
		RobotY:    y,
		RobotDir:  dir,
		Obstacles: p.flush(),
	}
	return Event{Kind: EventPlanRequest, Plan: payload}, nil
}

// parseObstacle handles "OBSTACLE,id,x,y,dir": the record is appended to the
// accumulator and no flush is emitted.
func (p *Parser) parseObstacle(parts []string) (Event, error) {
	if len(parts) != 5 {
		return Event{}, errors.WrapProtocol(
			fmt.Errorf("OBSTACLE packet with %d fields: %w", len(parts), errors.ErrMalformedPacket),
			"parser", "parseObstacle", "arity check")
	}
	id, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Event{}, errors.WrapProtocol(err, "parser", "parseObstacle", "id decode")
	}
	x, y, err := p.parseCoords(parts[2], parts[3], "parseObstacle")
	if err != nil {
		return Event{}, err
	}
	dir, ok := ParseDirection(parts[4])
	if !ok {
		p.logger.Warn("unknown obstacle heading, defaulting to north", "id", id, "designator", parts[4])
	}

	record := ObstacleRecord{ID: id, X: x, Y: y, Dir: dir}
	p.accum = append(p.accum, record)
	p.logger.Debug("obstacle accumulated", "id", id, "total", len(p.accum))
	return Event{Kind: EventObstacleAppend, Obstacle: record}, nil
}

// flushOnBegin handles the explicit begin-marker: the accumulated obstacles
// are combined with the current pose. An empty accumulator produces no event.
func (p *Parser) flushOnBegin() (Event, error) {
	if len(p.accum) == 0 {
		return Event{}, errors.WrapProtocol(
			fmt.Errorf("begin-flush with no obstacles accumulated: %w", errors.ErrMalformedPacket),
			"parser", "flushOnBegin", "accumulator check")
	}
	pose := p.pose()
	payload := &PlanPayload{
		RobotX:    pose.X,
		RobotY:    pose.Y,
		RobotDir:  pose.Dir,
		Obstacles: p.flush(),
	}
	return Event{Kind: EventPlanRequest, Plan: payload}, nil
}

// flush takes the accumulator's current contents and clears it.
func (p *Parser) flush() []ObstacleRecord {
	out := p.accum
	p.accum = nil
	return out
}

func (p *Parser) parseCoords(xs, ys, op string) (int, int, error) {
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, errors.WrapProtocol(err, "parser", op, "x decode")
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, errors.WrapProtocol(err, "parser", op, "y decode")
	}
	if !InGrid(x, y) {
		return 0, 0, errors.WrapProtocol(
			fmt.Errorf("(%d,%d): %w", x, y, errors.ErrInvalidCoordinate),
			"parser", op, "range check")
	}
	return x, y, nil
}
