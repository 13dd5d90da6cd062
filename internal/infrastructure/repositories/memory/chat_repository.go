package memory

import (
	"context"
	"sync"

	"aulanet/internal/core/domain"
)

// ChatRepository keeps conversations keyed by room.
type ChatRepository struct {
	mu     sync.RWMutex
	chats  map[string]*domain.Chat
	nextID int64
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		chats:  make(map[string]*domain.Chat),
		nextID: 1,
	}
}

func cloneChat(c *domain.Chat) *domain.Chat {
	clone := *c
	clone.Messages = make([]domain.Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}

func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat.ID = r.nextID
	r.nextID++
	r.chats[chat.Room] = cloneChat(chat)
	return nil
}

func (r *ChatRepository) GetByRoom(ctx context.Context, room string) (*domain.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chat, ok := r.chats[room]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	return cloneChat(chat), nil
}

func (r *ChatRepository) GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, chat := range r.chats {
		if (chat.User1ID == a && chat.User2ID == b) || (chat.User1ID == b && chat.User2ID == a) {
			return cloneChat(chat), nil
		}
	}
	return nil, domain.ErrChatNotFound
}

func (r *ChatRepository) RoomExists(ctx context.Context, room string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.chats[room]
	return ok, nil
}

func (r *ChatRepository) UpdateMessages(ctx context.Context, room string, messages []domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[room]
	if !ok {
		return domain.ErrChatNotFound
	}
	chat.Messages = make([]domain.Message, len(messages))
	copy(chat.Messages, messages)
	return nil
}

func (r *ChatRepository) ListByUser(ctx context.Context, id domain.UserID) ([]*domain.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Chat, 0)
	for _, chat := range r.chats {
		if chat.HasParticipant(id) {
			out = append(out, cloneChat(chat))
		}
	}
	return out, nil
}
