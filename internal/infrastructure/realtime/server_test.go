package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/repositories/memory"
	"aulanet/internal/infrastructure/storage"
	"aulanet/pkg/config"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		PingInterval:      time.Minute,
		PongTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Second,
		SendBufferSize:    32,
		MessagesPerSecond: 1000,
		MessageBurst:      1000,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server, *services.ChatService) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	chat := services.NewChatService(memory.NewChatRepository(), storage.NewMemoryStorage(), "chat-files", logger)
	srv := NewServer(chat, testRealtimeConfig(), nil, logger)

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleSocket))
	t.Cleanup(ts.Close)
	return srv, ts, chat
}

func dialSocket(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// sendRaw writes the frame byte-for-byte as a client would produce it,
// so the tests exercise the exact field names on the wire rather than
// whatever the server's own structs happen to marshal to.
func sendRaw(t *testing.T, conn *websocket.Conn, event, payload string) {
	t.Helper()
	frame := fmt.Sprintf(`{"event":%q,"data":%s}`, event, payload)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn, wantEvent string) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("waiting for %q: %v", wantEvent, err)
	}
	if env.Event != wantEvent {
		t.Fatalf("got event %q, want %q (payload %s)", env.Event, wantEvent, env.Data)
	}
	return env.Data
}

// readFields decodes an outbound object payload keyed by its raw JSON
// field names.
func readFields(t *testing.T, conn *websocket.Conn, wantEvent string) map[string]json.RawMessage {
	t.Helper()
	data := readEvent(t, conn, wantEvent)
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("%s payload is not an object: %s", wantEvent, data)
	}
	return fields
}

func TestServer_CallFlow(t *testing.T) {
	_, ts, _ := newTestServer(t)

	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "register-peer", `"peer-1"`)
	sendRaw(t, c1, "join-call", `"sala-123"`)

	var roster []string
	if err := json.Unmarshal(readEvent(t, c1, "all-users"), &roster); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(roster) != 0 {
		t.Fatalf("first joiner should see an empty roster, got %v", roster)
	}

	c2 := dialSocket(t, ts)
	sendRaw(t, c2, "register-peer", `"peer-2"`)
	sendRaw(t, c2, "join-call", `"sala-123"`)

	if err := json.Unmarshal(readEvent(t, c2, "all-users"), &roster); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(roster) != 1 || roster[0] != "peer-1" {
		t.Fatalf("second joiner roster = %v, want [peer-1]", roster)
	}

	// user-joined carries the bare peer id, not an object.
	if data := readEvent(t, c1, "user-joined"); string(data) != `"peer-2"` {
		t.Fatalf("user-joined payload = %s, want \"peer-2\"", data)
	}

	// Offer from the newcomer reaches the existing member only.
	sendRaw(t, c2, "call-user", `{"roomId":"sala-123","signal":{"type":"offer"},"from":"peer-2"}`)
	offer := readFields(t, c1, "receive-call")
	if string(offer["signal"]) != `{"type":"offer"}` {
		t.Fatalf("receive-call signal = %s", offer["signal"])
	}
	if string(offer["from"]) != `"peer-2"` {
		t.Fatalf("receive-call from = %s", offer["from"])
	}

	// The answer is stamped with the answerer's registered peer id.
	sendRaw(t, c1, "answer-call", `{"roomId":"sala-123","signal":{"type":"answer"}}`)
	answer := readFields(t, c2, "call-accepted")
	if string(answer["signal"]) != `{"type":"answer"}` {
		t.Fatalf("call-accepted signal = %s", answer["signal"])
	}
	if string(answer["from"]) != `"peer-1"` {
		t.Fatalf("call-accepted from = %s", answer["from"])
	}

	// Explicit leave notifies the remaining member.
	sendRaw(t, c1, "leave-call", `"sala-123"`)
	left := readFields(t, c2, "user-left")
	if string(left["userId"]) != `"peer-1"` {
		t.Fatalf("user-left userId = %s", left["userId"])
	}
}

func TestServer_UnregisteredPeersNotInRoster(t *testing.T) {
	_, ts, _ := newTestServer(t)

	// First client joins without ever registering a peer id.
	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "join-call", `"sala-x"`)
	readEvent(t, c1, "all-users")

	c2 := dialSocket(t, ts)
	sendRaw(t, c2, "register-peer", `"peer-2"`)
	sendRaw(t, c2, "join-call", `"sala-x"`)

	var roster []string
	if err := json.Unmarshal(readEvent(t, c2, "all-users"), &roster); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(roster) != 0 {
		t.Fatalf("roster should skip unregistered members, got %v", roster)
	}
}

func TestServer_DisconnectLeavesRooms(t *testing.T) {
	_, ts, _ := newTestServer(t)

	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "register-peer", `"peer-1"`)
	sendRaw(t, c1, "join-call", `"sala-d"`)
	readEvent(t, c1, "all-users")

	c2 := dialSocket(t, ts)
	sendRaw(t, c2, "register-peer", `"peer-2"`)
	sendRaw(t, c2, "join-call", `"sala-d"`)
	readEvent(t, c2, "all-users")
	readEvent(t, c1, "user-joined")

	// c1 drops without a leave-call; the remaining member still hears
	// about it.
	c1.Close()

	left := readFields(t, c2, "user-left")
	if string(left["userId"]) != `"peer-1"` {
		t.Fatalf("user-left userId = %s", left["userId"])
	}
}

func TestServer_ChatFlow(t *testing.T) {
	_, ts, chat := newTestServer(t)

	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "join_room", `{"user1_id":1,"user2_id":2}`)

	var history []domain.Message
	if err := json.Unmarshal(readEvent(t, c1, "chat_history"), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("fresh chat history = %v", history)
	}

	resolved, err := chat.ResolveRoom(context.Background(), "", 1, 2)
	if err != nil {
		t.Fatalf("resolve created chat: %v", err)
	}

	// The second participant joins the same conversation by room key.
	c2 := dialSocket(t, ts)
	sendRaw(t, c2, "join_room", fmt.Sprintf(`{"room":%q}`, resolved.Room))
	readEvent(t, c2, "chat_history")

	sendRaw(t, c1, "chat_message", fmt.Sprintf(`{"room":%q,"usuario":"ana","texto":"hola"}`, resolved.Room))

	// Both members get the broadcast, the sender included. The payload
	// carries only usuario and texto.
	for _, conn := range []*websocket.Conn{c1, c2} {
		msg := readFields(t, conn, "chat_message")
		if string(msg["usuario"]) != `"ana"` || string(msg["texto"]) != `"hola"` {
			t.Fatalf("chat_message = %v", msg)
		}
		if _, ok := msg["room"]; ok {
			t.Fatalf("chat_message leaks the room id: %v", msg)
		}
	}

	// And the message was persisted.
	stored, err := chat.ResolveRoom(context.Background(), resolved.Room, 0, 0)
	if err != nil {
		t.Fatalf("reload chat: %v", err)
	}
	if len(stored.Messages) != 1 || stored.Messages[0].Texto != "hola" {
		t.Fatalf("persisted messages = %+v", stored.Messages)
	}
}

func TestServer_ChatFileFlow(t *testing.T) {
	_, ts, chat := newTestServer(t)

	resolved, err := chat.ResolveRoom(context.Background(), "", 1, 2)
	if err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "join_room", fmt.Sprintf(`{"room":%q}`, resolved.Room))
	readEvent(t, c1, "chat_history")

	// "cGRmLWJ5dGVz" is base64 for pdf-bytes.
	sendRaw(t, c1, "chat_file", fmt.Sprintf(
		`{"room":%q,"usuario":"ana","archivo":"cGRmLWJ5dGVz","nombreArchivo":"apuntes.pdf","tipoArchivo":"application/pdf"}`,
		resolved.Room))

	file := readFields(t, c1, "chat_file")
	if string(file["usuario"]) != `"ana"` {
		t.Fatalf("chat_file usuario = %s", file["usuario"])
	}
	if string(file["nombreArchivo"]) != `"apuntes.pdf"` {
		t.Fatalf("chat_file nombreArchivo = %s", file["nombreArchivo"])
	}
	if string(file["tipoArchivo"]) != `"application/pdf"` {
		t.Fatalf("chat_file tipoArchivo = %s", file["tipoArchivo"])
	}
	var url string
	if err := json.Unmarshal(file["archivo"], &url); err != nil || url == "" {
		t.Fatalf("chat_file archivo should be the stored URL, got %s", file["archivo"])
	}
	if strings.Contains(url, "cGRmLWJ5dGVz") {
		t.Fatalf("chat_file echoed the upload payload instead of a URL: %s", url)
	}
}

func TestServer_JoinUnknownRoomSendsChatError(t *testing.T) {
	_, ts, _ := newTestServer(t)

	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "join_room", `{"room":"AAAAAAAAAAAAAAAAAAAA"}`)

	// chat_error is a bare string message.
	var msg string
	if err := json.Unmarshal(readEvent(t, c1, "chat_error"), &msg); err != nil {
		t.Fatalf("chat_error payload is not a string: %v", err)
	}
	if msg == "" {
		t.Fatal("chat_error carries no message")
	}
}

func TestServer_UserChats(t *testing.T) {
	_, ts, chat := newTestServer(t)

	if _, err := chat.ResolveRoom(context.Background(), "", 1, 2); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	if _, err := chat.ResolveRoom(context.Background(), "", 1, 3); err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	c1 := dialSocket(t, ts)
	sendRaw(t, c1, "get_user_chats", `1`)

	var chats []domain.Chat
	if err := json.Unmarshal(readEvent(t, c1, "user_chats"), &chats); err != nil {
		t.Fatalf("unmarshal user_chats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}
}
