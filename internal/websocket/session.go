package websocket

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"notify-service/internal/auth"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	defaultSendQueueSize = 256
)

var (
	ErrSessionClosed  = errors.New("websocket: session closed")
	ErrSendBufferFull = errors.New("websocket: send buffer full")
)

// Session is one upgraded connection plus the principal resolved during its
// handshake. The principal is assigned at construction, before the session
// ever becomes visible to the registry, and never changes. A nil principal
// means the session is anonymous: it receives broadcasts but cannot be
// targeted by username.
type Session struct {
	id        string
	conn      *websocket.Conn
	principal *auth.Principal
	send      chan []byte
	done      chan struct{}
	closed    int32
}

func NewSession(conn *websocket.Conn, principal *auth.Principal, queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = defaultSendQueueSize
	}
	return &Session{
		id:        uuid.New().String(),
		conn:      conn,
		principal: principal,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Principal() *auth.Principal { return s.principal }

// Username returns the authenticated username, or "" for anonymous sessions.
func (s *Session) Username() string {
	if s.principal == nil {
		return ""
	}
	return s.principal.Username
}

// Send enqueues a payload for delivery without blocking. A full queue counts
// as a delivery failure so one stalled peer cannot hold up a broadcast.
func (s *Session) Send(payload []byte) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrSessionClosed
	}
	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSendBufferFull
	}
}

// close marks the session closed exactly once and signals both pumps to exit.
func (s *Session) close() {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		close(s.done)
	}
}

// Start launches the read and write pumps. Called once, after the session has
// been registered.
func (s *Session) Start(registry *Registry) {
	go s.writePump()
	go s.readPump(registry)
}

// readPump drains inbound frames so pong and close handling keep working; the
// service itself is push-only. The first read error tears the session down.
func (s *Session) readPump(registry *Registry) {
	defer func() {
		registry.Remove(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read failed", "sessionID", s.id, "user", s.Username(), "error", err)
			} else {
				slog.Debug("websocket connection closed", "sessionID", s.id, "user", s.Username(), "error", err)
			}
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("websocket write failed", "sessionID", s.id, "user", s.Username(), "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("websocket ping failed", "sessionID", s.id, "user", s.Username(), "error", err)
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
