package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Envelope is the framing for every socket message, inbound and
// outbound: a named event plus an opaque payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Session is one live client connection. The transport-assigned ID is
// unique per connection and invalid after disconnect. All writes go
// through the buffered send channel so a single goroutine owns the
// socket's write side.
type Session struct {
	ID   string
	conn *websocket.Conn

	send   chan []byte
	closed chan struct{}

	writeTimeout time.Duration
	pingInterval time.Duration

	logger *zap.SugaredLogger
}

func newSession(id string, conn *websocket.Conn, bufSize int, writeTimeout, pingInterval time.Duration, logger *zap.SugaredLogger) *Session {
	return &Session{
		ID:           id,
		conn:         conn,
		send:         make(chan []byte, bufSize),
		closed:       make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// Emit queues an event for delivery. Best effort: a full buffer or a
// closed session drops the message, matching the relay's
// fire-and-forget semantics.
func (s *Session) Emit(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Errorw("marshal payload", "event", event, "session_id", s.ID, "error", err)
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		s.logger.Errorw("marshal envelope", "event", event, "session_id", s.ID, "error", err)
		return
	}

	select {
	case <-s.closed:
	case s.send <- frame:
	default:
		s.logger.Warnw("send buffer full, dropping event", "event", event, "session_id", s.ID)
	}
}

// writePump drains the send channel onto the socket and keeps the
// heartbeat going. It exits when close() is called and closes the
// connection, which in turn unblocks the read loop.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}

func (s *Session) close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}
