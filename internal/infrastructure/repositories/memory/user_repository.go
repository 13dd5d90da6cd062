package memory

import (
	"context"
	"strings"
	"sync"

	"aulanet/internal/core/domain"
)

// UserRepository is the in-memory fallback user store.
type UserRepository struct {
	mu     sync.RWMutex
	users  map[domain.UserID]*domain.User
	nextID domain.UserID

	videosByUser func(domain.UserID) int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[domain.UserID]*domain.User),
		nextID: 1,
	}
}

// SetVideoCounter wires the teacher listing to a video-count source.
// Optional; without it teacher profiles report zero videos.
func (r *UserRepository) SetVideoCounter(fn func(domain.UserID) int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videosByUser = fn
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}

	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		clone := *user
		out = append(out, &clone)
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, existing := range r.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) ListTeachers(ctx context.Context) ([]*domain.TeacherProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.TeacherProfile, 0)
	for _, user := range r.users {
		if user.Role != domain.RoleTeacher {
			continue
		}
		profile := &domain.TeacherProfile{User: *user}
		if r.videosByUser != nil {
			profile.VideoCount = r.videosByUser(user.ID)
		}
		out = append(out, profile)
	}
	return out, nil
}
