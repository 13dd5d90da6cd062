package ports

import (
	"context"
	"time"

	"aulanet/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id domain.UserID) error
	ListTeachers(ctx context.Context) ([]*domain.TeacherProfile, error)
}

type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByRoom(ctx context.Context, room string) (*domain.Chat, error)
	// GetByParticipants matches the unordered pair: (a,b) and (b,a) find
	// the same chat.
	GetByParticipants(ctx context.Context, a, b domain.UserID) (*domain.Chat, error)
	RoomExists(ctx context.Context, room string) (bool, error)
	UpdateMessages(ctx context.Context, room string, messages []domain.Message) error
	ListByUser(ctx context.Context, id domain.UserID) ([]*domain.Chat, error)
}

type CalendarRepository interface {
	Create(ctx context.Context, event *domain.CalendarEvent) error
	GetByID(ctx context.Context, id int64) (*domain.CalendarEvent, error)
	List(ctx context.Context) ([]*domain.CalendarEvent, error)
	ListByUser(ctx context.Context, id domain.UserID) ([]*domain.CalendarEvent, error)
	Update(ctx context.Context, event *domain.CalendarEvent) error
	Delete(ctx context.Context, id int64) error
	// HasOverlap reports whether the user participates in any event whose
	// [start, end) interval intersects the given one, excluding the event
	// with excludeID (0 for none).
	HasOverlap(ctx context.Context, user domain.UserID, start, end time.Time, excludeID int64) (bool, error)
	CallKeyExists(ctx context.Context, key string) (bool, error)
	AddParticipant(ctx context.Context, eventID int64, p domain.EventParticipant) error
	RemoveParticipant(ctx context.Context, eventID int64, user domain.UserID) error
	ListParticipants(ctx context.Context, eventID int64) ([]domain.EventParticipant, error)
}

type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
	List(ctx context.Context) ([]*domain.Video, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id int64) error
	SetCounters(ctx context.Context, id int64, views, likes int64) error
}
