// Package operator implements the operator-facing side of the mission: the
// link abstraction over the short-range wireless transport, the receiver
// worker that parses inbound lines, and the outbound sender that drains the
// status-message queue. Link failures are reported through the shared
// link-dropped flag, never thrown past the worker boundary.
package operator

import (
	"context"

	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// Link is the operator-held device connection. Implementations must be safe
// for one concurrent reader (the receiver) plus one concurrent writer (the
// sender).
type Link interface {
	// Connect establishes the link, blocking until an operator is attached
	// or ctx is cancelled.
	Connect(ctx context.Context) error

	// Disconnect tears down the current operator connection. The link may
	// be re-established with a subsequent Connect.
	Disconnect() error

	// Send transmits one message on the link.
	Send(msg protocol.Message) error

	// Recv blocks until one text line arrives or the link fails.
	Recv(ctx context.Context) (string, error)
}
