package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
)

type joinRoomPayload struct {
	Room    string        `json:"room"`
	User1ID domain.UserID `json:"user1_id"`
	User2ID domain.UserID `json:"user2_id"`
}

type chatMessagePayload struct {
	Room    string `json:"room"`
	Usuario string `json:"usuario"`
	Texto   string `json:"texto"`
}

// chatMessageBroadcast is what the room hears; the room id never goes
// back out on the wire.
type chatMessageBroadcast struct {
	Usuario string `json:"usuario"`
	Texto   string `json:"texto"`
}

type chatFilePayload struct {
	Room     string `json:"room"`
	Usuario  string `json:"usuario"`
	Archivo  string `json:"archivo"`
	Nombre   string `json:"nombreArchivo"`
	MimeType string `json:"tipoArchivo"`
}

type chatFileBroadcast struct {
	Usuario  string `json:"usuario"`
	Archivo  string `json:"archivo"`
	Nombre   string `json:"nombreArchivo"`
	MimeType string `json:"tipoArchivo"`
}

// chatError sends the bare message string, the shape chat clients
// listen for on chat_error.
func (s *Server) chatError(sess *Session, msg string) {
	sess.Emit("chat_error", msg)
}

// handleJoinRoom resolves the conversation (creating it on first
// contact between the pair), subscribes the session to its room and
// hands back the projected history.
func (s *Server) handleJoinRoom(ctx context.Context, sess *Session, data json.RawMessage) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.chatError(sess, "Error al unirse a la sala.")
		return
	}

	chat, err := s.chat.ResolveRoom(ctx, p.Room, p.User1ID, p.User2ID)
	if err != nil {
		s.logger.Errorw("join room failed", "session_id", sess.ID, "room", p.Room, "error", err)
		s.chatError(sess, "Error al unirse a la sala.")
		return
	}

	s.registry.Join(chat.Room, sess.ID)
	sess.Emit("chat_history", s.chat.History(chat))
	s.logger.Infow("joined chat room", "session_id", sess.ID, "room", chat.Room)
}

// handleChatMessage persists the text and echoes it to the whole room,
// the sender included. A message to a room that does not exist is
// dropped without a client-visible error.
func (s *Server) handleChatMessage(ctx context.Context, sess *Session, data json.RawMessage) {
	var p chatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.chatError(sess, "Error al enviar el mensaje.")
		return
	}

	msg, err := s.chat.AppendText(ctx, p.Room, p.Usuario, p.Texto)
	if err != nil {
		if errors.Is(err, domain.ErrChatNotFound) {
			s.logger.Warnw("message to unknown room", "session_id", sess.ID, "room", p.Room)
			return
		}
		s.logger.Errorw("store message failed", "session_id", sess.ID, "room", p.Room, "error", err)
		s.chatError(sess, "Error al enviar el mensaje.")
		return
	}

	s.broadcast(p.Room, "", "chat_message", chatMessageBroadcast{Usuario: msg.Usuario, Texto: msg.Texto})
	if s.metrics != nil {
		s.metrics.ChatMessageStored()
	}
}

// handleChatFile validates, stores and persists the attachment, then
// announces the stored URL to the room.
func (s *Server) handleChatFile(ctx context.Context, sess *Session, data json.RawMessage) {
	var p chatFilePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.chatError(sess, "Error al enviar el archivo.")
		return
	}

	msg, err := s.chat.AppendFile(ctx, services.FileUpload{
		Room:     p.Room,
		Usuario:  p.Usuario,
		Payload:  p.Archivo,
		FileName: p.Nombre,
		MimeType: p.MimeType,
	})
	if err != nil {
		s.logger.Errorw("store file failed", "session_id", sess.ID, "room", p.Room, "error", err)
		s.chatError(sess, "Error al enviar el archivo.")
		return
	}

	s.broadcast(p.Room, "", "chat_file", chatFileBroadcast{
		Usuario:  msg.Usuario,
		Archivo:  msg.Attachment.FileURL,
		Nombre:   msg.Attachment.FileName,
		MimeType: msg.Attachment.MimeType,
	})
	if s.metrics != nil {
		s.metrics.ChatFileStored()
	}
}

// handleUserChats returns every conversation the user takes part in.
func (s *Server) handleUserChats(ctx context.Context, sess *Session, data json.RawMessage) {
	var userID domain.UserID
	if err := json.Unmarshal(data, &userID); err != nil {
		s.chatError(sess, "Error al obtener los chats.")
		return
	}

	chats, err := s.chat.UserChats(ctx, userID)
	if err != nil {
		s.logger.Errorw("list user chats failed", "session_id", sess.ID, "user_id", userID, "error", err)
		s.chatError(sess, "Error al obtener los chats.")
		return
	}
	sess.Emit("user_chats", chats)
}
