package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/ports"
	"aulanet/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxChatFileBytes caps the decoded size of a chat file upload.
const MaxChatFileBytes = 500 * 1024 * 1024

// allowedChatFileTypes is the upload allow-list. Anything else is
// rejected before the payload is even decoded.
var allowedChatFileTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// FileUpload is a chat file as it arrives over the socket: base64 payload
// plus declared name and type.
type FileUpload struct {
	Room     string
	Usuario  string
	Payload  string
	FileName string
	MimeType string
}

// ChatService resolves chats, projects history, and appends messages and
// files. History writes are read-modify-write over a serialized blob, so
// the service owns a lock per room; chat creation is serialized per
// participant pair so concurrent joins cannot create duplicates.
type ChatService struct {
	repo         ports.ChatRepository
	storage      ports.ObjectStorage
	bucket       string
	maxFileBytes int64
	logger       *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChatService(repo ports.ChatRepository, storage ports.ObjectStorage, bucket string, logger *zap.SugaredLogger) *ChatService {
	return &ChatService{
		repo:         repo,
		storage:      storage,
		bucket:       bucket,
		maxFileBytes: MaxChatFileBytes,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing operations on the given key
// (a room key, or a normalized participant pair).
func (s *ChatService) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func pairKey(a, b domain.UserID) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("pair:%d:%d", a, b)
}

// ResolveRoom finds the chat to join. With a room key it fetches that
// chat; with only a participant pair it finds the pair's chat or creates
// one under a fresh collision-free room key.
func (s *ChatService) ResolveRoom(ctx context.Context, room string, user1, user2 domain.UserID) (*domain.Chat, error) {
	if room != "" {
		return s.repo.GetByRoom(ctx, room)
	}
	if user1 == 0 || user2 == 0 {
		return nil, domain.ErrChatNotFound
	}

	lock := s.lockFor(pairKey(user1, user2))
	lock.Lock()
	defer lock.Unlock()

	chat, err := s.repo.GetByParticipants(ctx, user1, user2)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, domain.ErrChatNotFound) {
		return nil, err
	}

	key, err := s.uniqueRoomKey(ctx)
	if err != nil {
		return nil, err
	}
	chat = &domain.Chat{
		Room:      key,
		User1ID:   user1,
		User2ID:   user2,
		Messages:  []domain.Message{},
		CreatedAt: utils.Now().UTC(),
	}
	if err := s.repo.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// uniqueRoomKey retries key generation until no existing chat uses the
// candidate.
func (s *ChatService) uniqueRoomKey(ctx context.Context) (string, error) {
	for {
		key := utils.GenerateRoomKey()
		exists, err := s.repo.RoomExists(ctx, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
}

// History returns the read-time projection of the chat's messages:
// expired attachments become placeholders, the stored record is never
// rewritten.
func (s *ChatService) History(chat *domain.Chat) []domain.Message {
	now := utils.Now()
	out := make([]domain.Message, len(chat.Messages))
	for i, m := range chat.Messages {
		out[i] = m.Projected(now)
	}
	return out
}

// AppendText appends a plain text message to the room's history and
// persists it. The text is stored verbatim; readers get it back exactly
// as sent. The append is serialized per room.
func (s *ChatService) AppendText(ctx context.Context, room, usuario, texto string) (domain.Message, error) {
	msg := domain.Message{Usuario: usuario, Texto: texto}

	lock := s.lockFor(room)
	lock.Lock()
	defer lock.Unlock()

	chat, err := s.repo.GetByRoom(ctx, room)
	if err != nil {
		return domain.Message{}, err
	}
	history := append(chat.Messages, msg)
	if err := s.repo.UpdateMessages(ctx, room, history); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// AppendFile validates, decodes, uploads and records a chat file. Any
// failure leaves history untouched; the caller surfaces a single error to
// the sending session only.
func (s *ChatService) AppendFile(ctx context.Context, up FileUpload) (domain.Message, error) {
	if up.Payload == "" || up.FileName == "" || up.MimeType == "" {
		return domain.Message{}, fmt.Errorf("incomplete file upload")
	}
	if _, ok := allowedChatFileTypes[up.MimeType]; !ok {
		return domain.Message{}, domain.ErrFileTypeNotAllowed
	}

	// Browsers send data URIs; keep only the base64 part.
	payload := up.Payload
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.Message{}, fmt.Errorf("decode file payload: %w", err)
	}
	if int64(len(data)) > s.maxFileBytes {
		return domain.Message{}, domain.ErrFileTooLarge
	}

	key := uuid.NewString() + filepath.Ext(up.FileName)
	url, err := s.storage.Upload(ctx, s.bucket, key, data, up.MimeType)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upload chat file: %w", err)
	}

	msg := domain.Message{
		Usuario: up.Usuario,
		Texto:   "",
		Attachment: &domain.Attachment{
			FileURL:    url,
			FileName:   up.FileName,
			MimeType:   up.MimeType,
			StorageKey: key,
			UploadedAt: utils.Now().UTC(),
		},
	}

	lock := s.lockFor(up.Room)
	lock.Lock()
	defer lock.Unlock()

	chat, err := s.repo.GetByRoom(ctx, up.Room)
	if err != nil {
		return domain.Message{}, err
	}
	history := append(chat.Messages, msg)
	if err := s.repo.UpdateMessages(ctx, up.Room, history); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// UserChats lists every chat the user participates in. List view only:
// no history, no expiry projection.
func (s *ChatService) UserChats(ctx context.Context, user domain.UserID) ([]*domain.Chat, error) {
	return s.repo.ListByUser(ctx, user)
}
