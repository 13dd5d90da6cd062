package memory

import (
	"context"
	"sort"
	"sync"

	"aulanet/internal/core/domain"
)

// VideoRepository keeps published videos with their counters and
// comment threads.
type VideoRepository struct {
	mu     sync.RWMutex
	videos map[int64]*domain.Video
	nextID int64
}

func NewVideoRepository() *VideoRepository {
	return &VideoRepository{
		videos: make(map[int64]*domain.Video),
		nextID: 1,
	}
}

func cloneVideo(v *domain.Video) *domain.Video {
	clone := *v
	clone.Comments = make([]domain.VideoComment, len(v.Comments))
	copy(clone.Comments, v.Comments)
	return &clone
}

func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video.ID = r.nextID
	r.nextID++
	r.videos[video.ID] = cloneVideo(video)
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, ok := r.videos[id]
	if !ok {
		return nil, domain.ErrVideoNotFound
	}
	return cloneVideo(video), nil
}

func (r *VideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Video, 0, len(r.videos))
	for _, video := range r.videos {
		out = append(out, cloneVideo(video))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r *VideoRepository) Update(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.videos[video.ID]; !ok {
		return domain.ErrVideoNotFound
	}
	r.videos[video.ID] = cloneVideo(video)
	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.videos[id]; !ok {
		return domain.ErrVideoNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *VideoRepository) SetCounters(ctx context.Context, id int64, views, likes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok {
		return domain.ErrVideoNotFound
	}
	video.Views = views
	video.Likes = likes
	return nil
}

// CountByUser reports how many videos the user has published. Used by
// the teacher listing.
func (r *VideoRepository) CountByUser(id domain.UserID) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, video := range r.videos {
		if video.UserID == id {
			n++
		}
	}
	return n
}
