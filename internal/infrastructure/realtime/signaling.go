package realtime

import "encoding/json"

type callUserPayload struct {
	RoomID string          `json:"roomId"`
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
}

type answerCallPayload struct {
	RoomID string          `json:"roomId"`
	Signal json.RawMessage `json:"signal"`
}

type receiveCallPayload struct {
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
}

type callAcceptedPayload struct {
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
}

type leavePayload struct {
	UserID string `json:"userId"`
}

// handleRegisterPeer records the caller's signaling identity. A second
// registration on the same session overwrites the first.
func (s *Server) handleRegisterPeer(sess *Session, data json.RawMessage) {
	var peerID string
	if err := json.Unmarshal(data, &peerID); err != nil || peerID == "" {
		s.logger.Warnw("register-peer with bad payload", "session_id", sess.ID, "error", err)
		return
	}
	s.peers.Register(sess.ID, peerID)
	s.logger.Debugw("peer registered", "session_id", sess.ID, "peer_id", peerID)
}

// handleJoinCall puts the session into the call room. The payload is the
// bare room id. The joiner gets the full peer roster first, then each
// existing member learns about the newcomer, so the joiner can start
// dialing before anyone dials it.
func (s *Server) handleJoinCall(sess *Session, data json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		s.logger.Warnw("join-call with bad payload", "session_id", sess.ID, "error", err)
		return
	}

	others := s.registry.Others(roomID, sess.ID)
	s.registry.Join(roomID, sess.ID)

	roster := make([]string, 0, len(others))
	for _, id := range others {
		if peerID, ok := s.peers.Get(id); ok {
			roster = append(roster, peerID)
		}
	}
	sess.Emit("all-users", roster)

	ownPeer, _ := s.peers.Get(sess.ID)
	for _, id := range others {
		if member, ok := s.session(id); ok {
			member.Emit("user-joined", ownPeer)
		}
	}

	if s.metrics != nil {
		s.metrics.SetActiveRooms(s.registry.RoomCount())
	}
	s.logger.Infow("joined call", "session_id", sess.ID, "room", roomID, "existing_peers", len(roster))
}

// handleCallUser relays an offer to everyone else in the room.
func (s *Server) handleCallUser(sess *Session, data json.RawMessage) {
	var p callUserPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.logger.Warnw("call-user with bad payload", "session_id", sess.ID, "error", err)
		return
	}
	s.broadcast(p.RoomID, sess.ID, "receive-call", receiveCallPayload{Signal: p.Signal, From: p.From})
}

// handleAnswerCall relays an answer to everyone else in the room,
// stamped with the answerer's own peer identity.
func (s *Server) handleAnswerCall(sess *Session, data json.RawMessage) {
	var p answerCallPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		s.logger.Warnw("answer-call with bad payload", "session_id", sess.ID, "error", err)
		return
	}
	ownPeer, _ := s.peers.Get(sess.ID)
	s.broadcast(p.RoomID, sess.ID, "call-accepted", callAcceptedPayload{Signal: p.Signal, From: ownPeer})
}

// handleLeaveCall removes the session from the room and tells the
// remaining members which peer left. The payload is the bare room id.
func (s *Server) handleLeaveCall(sess *Session, data json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		s.logger.Warnw("leave-call with bad payload", "session_id", sess.ID, "error", err)
		return
	}
	peerID, _ := s.peers.Get(sess.ID)
	s.registry.Leave(roomID, sess.ID)
	s.broadcast(roomID, sess.ID, "user-left", leavePayload{UserID: peerID})

	if s.metrics != nil {
		s.metrics.SetActiveRooms(s.registry.RoomCount())
	}
	s.logger.Infow("left call", "session_id", sess.ID, "room", roomID)
}
