package protocol

import (
	"encoding/json"
	"fmt"
)

// Category identifies the kind of an operator-link message.
type Category string

// Outbound message categories.
const (
	CategoryInfo     Category = "info"
	CategoryMode     Category = "mode"
	CategoryStatus   Category = "status"
	CategoryError    Category = "error"
	CategoryLocation Category = "location"
	CategoryImageRec Category = "image-rec"
)

// Inbound structured-envelope categories.
const (
	CategoryObstacle Category = "obstacle"
	CategoryControl  Category = "control"
)

// Message is one outbound status message for the operator. Value is already
// flattened to its wire form; NewLocation performs the location-specific
// serialization.
type Message struct {
	Cat   Category `json:"cat"`
	Value string   `json:"value"`
}

// NewMessage creates an outbound message with a plain string value.
func NewMessage(cat Category, value string) Message {
	return Message{Cat: cat, Value: value}
}

// NewLocation creates a location update. On the wire a location serializes as
// "location;x;y;d" with the heading normalized to its numeric code.
func NewLocation(wp Waypoint) Message {
	return Message{
		Cat:   CategoryLocation,
		Value: fmt.Sprintf("%d;%d;%d", wp.X, wp.Y, int(wp.Dir)),
	}
}

// WireString converts the message to its newline-ready wire form:
// the category and the semicolon-joined value.
func (m Message) WireString() string {
	return fmt.Sprintf("%s;%s", m.Cat, m.Value)
}

// Jsonify returns the structured-envelope form of the message, used for
// logging and the telemetry mirror.
func (m Message) Jsonify() string {
	data, err := json.Marshal(m)
	if err != nil {
		// Message is two strings; marshaling cannot realistically fail.
		return fmt.Sprintf(`{"cat":%q,"value":%q}`, m.Cat, m.Value)
	}
	return string(data)
}
