package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"aulanet/internal/core/domain"
)

// ChatRepository persists conversations. The message log is a JSON
// array column; the room-level locking in the chat service keeps
// concurrent read-modify-write cycles on it serialized.
type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	messages, err := json.Marshal(chat.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (room, user1_id, user2_id, messages, created_at) VALUES (?, ?, ?, ?, ?)`,
		chat.Room, chat.User1ID, chat.User2ID, string(messages), fmtTime(chat.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert chat id: %w", err)
	}
	chat.ID = id
	return nil
}

func (r *ChatRepository) GetByRoom(ctx context.Context, room string) (*domain.Chat, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, room, user1_id, user2_id, messages, created_at FROM chats WHERE room = ?`, room))
}

func (r *ChatRepository) GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, room, user1_id, user2_id, messages, created_at FROM chats
		 WHERE (user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)`,
		a, b, b, a))
}

func (r *ChatRepository) scanOne(row *sql.Row) (*domain.Chat, error) {
	var chat domain.Chat
	var messages, createdAt string
	err := row.Scan(&chat.ID, &chat.Room, &chat.User1ID, &chat.User2ID, &messages, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &chat.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	if chat.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse chat created_at: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) RoomExists(ctx context.Context, room string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE room = ?)`, room).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return exists, nil
}

func (r *ChatRepository) UpdateMessages(ctx context.Context, room string, messages []domain.Message) error {
	blob, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET messages = ? WHERE room = ?`, string(blob), room)
	if err != nil {
		return fmt.Errorf("update messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update messages: %w", err)
	}
	if n == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}

func (r *ChatRepository) ListByUser(ctx context.Context, id domain.UserID) ([]*domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room, user1_id, user2_id, messages, created_at FROM chats
		 WHERE user1_id = ? OR user2_id = ? ORDER BY id`, id, id)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Chat, 0)
	for rows.Next() {
		var chat domain.Chat
		var messages, createdAt string
		if err := rows.Scan(&chat.ID, &chat.Room, &chat.User1ID, &chat.User2ID, &messages, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if err := json.Unmarshal([]byte(messages), &chat.Messages); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
		if chat.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse chat created_at: %w", err)
		}
		out = append(out, &chat)
	}
	return out, rows.Err()
}
