package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/monitoring"
	"aulanet/pkg/config"
	"aulanet/pkg/tracing"
	"aulanet/pkg/utils"
)

// Server owns the websocket endpoint and dispatches envelope events to
// the chat and signaling handlers. Events from one connection are
// processed in arrival order; there is no cross-connection ordering.
type Server struct {
	chat     *services.ChatService
	registry *RoomRegistry
	peers    *PeerDirectory

	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     config.RealtimeConfig
	metrics *monitoring.Collector
	logger  *zap.SugaredLogger

	upgrader websocket.Upgrader
}

func NewServer(chat *services.ChatService, cfg config.RealtimeConfig, metrics *monitoring.Collector, logger *zap.SugaredLogger) *Server {
	return &Server{
		chat:     chat,
		registry: NewRoomRegistry(),
		peers:    NewPeerDirectory(),
		sessions: make(map[string]*Session),
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleSocket upgrades the HTTP request and runs the connection's
// read loop until the client goes away.
func (s *Server) HandleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := newSession(utils.GenerateSessionID(), conn, s.cfg.SendBufferSize, s.cfg.WriteTimeout, s.cfg.PingInterval, s.logger)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionConnected()
	}
	s.logger.Infow("session connected", "session_id", sess.ID, "remote", r.RemoteAddr)

	go sess.writePump()
	s.readLoop(r.Context(), sess)
	s.disconnect(sess)
}

func (s *Server) readLoop(ctx context.Context, sess *Session) {
	if s.cfg.MaxMessageBytes > 0 {
		sess.conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	sess.conn.SetReadDeadline(utils.Now().Add(s.cfg.PingInterval + s.cfg.PongTimeout))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(utils.Now().Add(s.cfg.PingInterval + s.cfg.PongTimeout))
		return nil
	})

	limiter := rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.MessageBurst)

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnw("session read error", "session_id", sess.ID, "error", err)
			}
			return
		}
		if !limiter.Allow() {
			s.logger.Warnw("rate limit exceeded, dropping message", "session_id", sess.ID)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.logger.Warnw("malformed envelope", "session_id", sess.ID, "error", err)
			continue
		}
		s.dispatch(ctx, sess, env)
	}
}

func (s *Server) dispatch(ctx context.Context, sess *Session, env Envelope) {
	ctx, span := tracing.TraceSocketEvent(ctx, env.Event, sess.ID)
	defer span.End()

	switch env.Event {
	case "join_room":
		s.handleJoinRoom(ctx, sess, env.Data)
	case "chat_message":
		s.handleChatMessage(ctx, sess, env.Data)
	case "chat_file":
		s.handleChatFile(ctx, sess, env.Data)
	case "get_user_chats":
		s.handleUserChats(ctx, sess, env.Data)
	case "register-peer":
		s.handleRegisterPeer(sess, env.Data)
	case "join-call":
		s.handleJoinCall(sess, env.Data)
	case "call-user":
		s.handleCallUser(sess, env.Data)
	case "answer-call":
		s.handleAnswerCall(sess, env.Data)
	case "leave-call":
		s.handleLeaveCall(sess, env.Data)
	default:
		s.logger.Debugw("unknown event", "event", env.Event, "session_id", sess.ID)
	}
	if s.metrics != nil {
		s.metrics.SocketEvent(env.Event)
	}
}

// disconnect tears the session down: the peer registration goes away
// and every joined room is left, with remaining members told the peer
// is gone.
func (s *Server) disconnect(sess *Session) {
	peerID, _ := s.peers.Get(sess.ID)
	s.peers.Remove(sess.ID)

	rooms := s.registry.DropSession(sess.ID)
	for _, room := range rooms {
		s.broadcast(room, "", "user-left", leavePayload{UserID: peerID})
	}

	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	sess.close()
	if s.metrics != nil {
		s.metrics.SessionDisconnected()
		s.metrics.SetActiveRooms(s.registry.RoomCount())
	}
	s.logger.Infow("session disconnected", "session_id", sess.ID, "rooms_left", len(rooms))
}

func (s *Server) session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// broadcast emits the event to every member of the room, skipping the
// excluded session if one is given.
func (s *Server) broadcast(room, exclude, event string, payload interface{}) {
	for _, id := range s.registry.Members(room) {
		if id == exclude {
			continue
		}
		if sess, ok := s.session(id); ok {
			sess.Emit(event, payload)
		}
	}
}
