// Package motor provides the motor-controller link and the ACK/FIN
// handshake handler. The controller speaks newline-terminated ASCII:
// outbound movement primitives, inbound ACK (command accepted) and FIN
// (physical execution finished).
package motor

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// Handshake tokens sent by the motor controller.
const (
	tokenAck = "ACK"
	tokenFin = "FIN"
)

// Link is the byte-stream transport to the motor controller.
type Link interface {
	// Connect establishes the link. Blocks until connected or ctx ends.
	Connect(ctx context.Context) error

	// Disconnect tears the link down. Safe to call when not connected.
	Disconnect()

	// Send writes one movement primitive, newline terminated. Tokens
	// outside the movement whitelist are rejected before touching the wire.
	Send(token string) error

	// Recv blocks for the next inbound line, trimmed of its terminator.
	Recv(ctx context.Context) (string, error)
}

// TCPLink is a Link over a TCP byte stream (serial-over-TCP bridge on the
// robot). Reads and writes may run concurrently; writes are serialized.
type TCPLink struct {
	addr   string
	logger *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex
}

var _ Link = (*TCPLink)(nil)

// NewTCPLink creates a link that dials addr on Connect.
func NewTCPLink(addr string, logger *slog.Logger) *TCPLink {
	if logger == nil {
		logger = slog.Default().With("component", "motor-link")
	}
	return &TCPLink{addr: addr, logger: logger}
}

// Connect dials the motor controller.
func (l *TCPLink) Connect(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", l.addr)
	if err != nil {
		return errors.WrapTransport(err, "motor", "Connect", "dial "+l.addr)
	}

	l.mu.Lock()
	l.conn = conn
	l.reader = bufio.NewReader(conn)
	l.mu.Unlock()

	l.logger.Info("motor link established", "addr", l.addr)
	return nil
}

// Disconnect closes the connection if one is open.
func (l *TCPLink) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
		l.reader = nil
	}
}

func (l *TCPLink) current() (net.Conn, *bufio.Reader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn, l.reader
}

// Send writes one newline-terminated movement primitive.
func (l *TCPLink) Send(token string) error {
	if !protocol.MotorBound(token) {
		return errors.WrapProtocol(
			fmt.Errorf("token %q: %w", token, errors.ErrUnrecognizedToken),
			"motor", "Send", "whitelist check")
	}

	conn, _ := l.current()
	if conn == nil {
		return errors.WrapTransport(errors.ErrNoConnection, "motor", "Send", "write")
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := conn.Write([]byte(token + "\n")); err != nil {
		return errors.WrapTransport(err, "motor", "Send", "write")
	}
	return nil
}

// Recv blocks for the next line. Cancellation is delivered by forcing a read
// deadline, so a cancelled Recv poisons the connection; callers reconnect.
func (l *TCPLink) Recv(ctx context.Context) (string, error) {
	conn, reader := l.current()
	if conn == nil {
		return "", errors.WrapTransport(errors.ErrNoConnection, "motor", "Recv", "read")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_ = conn.SetReadDeadline(time.Time{})
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-watchDone:
		}
	}()

	line, err := reader.ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.WrapTransport(err, "motor", "Recv", "read")
	}
	return strings.TrimSpace(line), nil
}
