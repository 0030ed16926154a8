package protocol

import (
	"fmt"
	"strings"

	"github.com/TenLetterx/RPi-MDP10/errors"
)

// CommandKind tags the three dispatch branches of the command router.
type CommandKind int

const (
	// CommandMovement is forwarded to the motor controller under the
	// movement lock and the ACK/FIN handshake.
	CommandMovement CommandKind = iota
	// CommandSnapshot is handled locally: it requests an image capture and
	// never reaches the motor link.
	CommandSnapshot
	// CommandFinalize is the end-of-mission sentinel that closes the
	// execution gate and triggers stitching.
	CommandFinalize
)

// String returns the dispatch branch name.
func (k CommandKind) String() string {
	switch k {
	case CommandMovement:
		return "movement"
	case CommandSnapshot:
		return "snapshot"
	case CommandFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Command is the tagged form of one queued command, constructed once at the
// parser boundary and never re-interpreted by type later.
type Command struct {
	Kind CommandKind

	// Raw is the wire token for movement commands, exactly as it will be
	// sent (newline termination is the motor link's concern).
	Raw string

	// ObstacleID and Signal are set for snapshot commands only.
	ObstacleID string
	Signal     string
}

// snapPrefix marks local snapshot commands. It is explicitly excluded from
// the movement whitelist even though it shares the leading 'S'.
const snapPrefix = "SNAP"

// finalizeSentinel marks the end of the queued command list.
const finalizeSentinel = "FIN"

// movementLeads is the fixed whitelist of leading bytes for motor-bound
// primitives: forward/backward, turns, trajectory/wheel and stop tokens.
const movementLeads = "FBTWS"

// ParseCommand classifies one command token into its tagged form. Tokens
// that cannot be unambiguously decoded are protocol errors, never
// best-effort reinterpretations.
func ParseCommand(token string) (Command, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Command{}, errors.WrapProtocol(
			fmt.Errorf("empty token: %w", errors.ErrUndecodableCmd),
			"protocol", "ParseCommand", "classify")
	}
	upper := strings.ToUpper(trimmed)

	if upper == finalizeSentinel {
		return Command{Kind: CommandFinalize, Raw: trimmed}, nil
	}

	if strings.HasPrefix(upper, snapPrefix) {
		id, signal, err := splitSnapshot(trimmed[len(snapPrefix):])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandSnapshot, Raw: trimmed, ObstacleID: id, Signal: signal}, nil
	}

	if strings.ContainsRune(movementLeads, rune(upper[0])) {
		return Command{Kind: CommandMovement, Raw: trimmed}, nil
	}

	return Command{}, errors.WrapProtocol(
		fmt.Errorf("token %q: %w", trimmed, errors.ErrUnrecognizedToken),
		"protocol", "ParseCommand", "classify")
}

// MotorBound reports whether a raw token is eligible for the motor link:
// leading byte in the movement whitelist and not a snapshot token.
func MotorBound(token string) bool {
	trimmed := strings.ToUpper(strings.TrimSpace(token))
	if trimmed == "" || strings.HasPrefix(trimmed, snapPrefix) {
		return false
	}
	return strings.ContainsRune(movementLeads, rune(trimmed[0]))
}

// splitSnapshot decodes the "<id>_<signal>" payload of a snapshot token.
// The signal tag is optional ("SNAP1" is legal); an empty obstacle id is not.
func splitSnapshot(payload string) (id, signal string, err error) {
	payload = strings.TrimPrefix(payload, "_")
	id, signal, _ = strings.Cut(payload, "_")
	if id == "" {
		return "", "", errors.WrapProtocol(
			fmt.Errorf("snapshot token missing obstacle id: %w", errors.ErrUndecodableCmd),
			"protocol", "splitSnapshot", "decode")
	}
	return id, signal, nil
}
