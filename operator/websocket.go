package operator

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TenLetterx/RPi-MDP10/errors"
	"github.com/TenLetterx/RPi-MDP10/protocol"
)

// WSLink is a websocket implementation of Link. The robot is the server; a
// single operator tablet connects to it, mirroring the way the wireless
// transport advertises one serial channel. A second concurrent client is
// rejected.
type WSLink struct {
	addr   string
	path   string
	logger *slog.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	server   *http.Server
	listenUp bool
	conn     *websocket.Conn
	writeMu  sync.Mutex // gorilla allows at most one concurrent writer

	pending chan *websocket.Conn
}

// NewWSLink creates a websocket operator link serving on addr (host:port).
// An empty path defaults to /operator.
func NewWSLink(addr, path string, logger *slog.Logger) *WSLink {
	if logger == nil {
		logger = slog.Default().With("component", "operator-link")
	}
	if path == "" {
		path = "/operator"
	}
	return &WSLink{
		addr:   addr,
		path:   path,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The operator app connects from an arbitrary origin on the
			// robot's private network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pending: make(chan *websocket.Conn, 1),
	}
}

// Connect starts the listener on first use, then blocks until an operator
// client attaches or ctx is cancelled.
func (l *WSLink) Connect(ctx context.Context) error {
	if err := l.ensureListener(); err != nil {
		return err
	}

	l.logger.Info("awaiting operator connection", "addr", l.addr, "path", l.path)
	select {
	case conn := <-l.pending:
		l.mu.Lock()
		l.conn = conn
		l.mu.Unlock()
		l.logger.Info("operator connected", "remote", conn.RemoteAddr().String())
		return nil
	case <-ctx.Done():
		return errors.WrapTransport(ctx.Err(), "operator-link", "Connect", "await operator")
	}
}

func (l *WSLink) ensureListener() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listenUp {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc(l.path, l.handleUpgrade)
	l.server = &http.Server{
		Addr:              l.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := l.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.logger.Error("operator listener stopped", "error", err)
		}
	}()

	l.listenUp = true
	return nil
}

func (l *WSLink) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	l.mu.Lock()
	attached := l.conn != nil
	l.mu.Unlock()
	if attached {
		// An operator is already attached; the transport is single-client.
		l.logger.Warn("rejecting extra operator connection", "remote", r.RemoteAddr)
		_ = conn.Close()
		return
	}

	select {
	case l.pending <- conn:
	default:
		// Another connection is already pending.
		l.logger.Warn("rejecting extra operator connection", "remote", r.RemoteAddr)
		_ = conn.Close()
	}
}

// Disconnect closes the current operator connection. The listener stays up
// so a replacement operator can attach.
func (l *WSLink) Disconnect() error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return errors.WrapTransport(err, "operator-link", "Disconnect", "close connection")
	}
	return nil
}

// Close shuts the listener down entirely.
func (l *WSLink) Close() error {
	_ = l.Disconnect()

	l.mu.Lock()
	server := l.server
	l.server = nil
	l.listenUp = false
	l.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// Send transmits one message as a text frame in its wire form.
func (l *WSLink) Send(msg protocol.Message) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return errors.WrapTransport(errors.ErrNoConnection, "operator-link", "Send", "connection check")
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.WireString())); err != nil {
		return errors.WrapTransport(err, "operator-link", "Send", "write message")
	}
	l.logger.Debug("operator send", "message", msg.Jsonify())
	return nil
}

// Recv blocks until one text frame arrives, the link fails, or ctx is
// cancelled. Frames are treated as lines; newline termination on the wire
// is the frame boundary. Cancellation forces the pending read to fail, so
// the connection does not survive it; that only happens during teardown or
// a supervisor-driven restart, both of which reconnect anyway.
func (l *WSLink) Recv(ctx context.Context) (string, error) {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return "", errors.WrapTransport(errors.ErrNoConnection, "operator-link", "Recv", "connection check")
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

	_, data, err := conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", errors.WrapTransport(err, "operator-link", "Recv", "read message")
	}
	return string(data), nil
}
