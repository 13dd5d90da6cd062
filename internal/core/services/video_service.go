package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VideoService handles lesson video CRUD, the comments sub-resource and
// the view/like counters. Counter increments go through the CounterStore
// (Redis when available) and are flushed back to the repository.
type VideoService struct {
	repo          ports.VideoRepository
	storage       ports.ObjectStorage
	counters      ports.CounterStore
	videoBucket   string
	thumbBucket   string
	logger        *zap.SugaredLogger
}

func NewVideoService(repo ports.VideoRepository, storage ports.ObjectStorage, counters ports.CounterStore, videoBucket, thumbBucket string, logger *zap.SugaredLogger) *VideoService {
	return &VideoService{
		repo:        repo,
		storage:     storage,
		counters:    counters,
		videoBucket: videoBucket,
		thumbBucket: thumbBucket,
		logger:      logger,
	}
}

type VideoUploadInput struct {
	UserID      domain.UserID
	Title       string
	Description string
	Video       ImageUpload
	Thumbnail   *ImageUpload
}

func (s *VideoService) Create(ctx context.Context, in VideoUploadInput) (*domain.Video, error) {
	if len(in.Video.Data) == 0 {
		return nil, fmt.Errorf("video file is required")
	}

	videoKey := uuid.NewString() + filepath.Ext(in.Video.FileName)
	videoURL, err := s.storage.Upload(ctx, s.videoBucket, videoKey, in.Video.Data, in.Video.MimeType)
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	var thumbURL string
	if in.Thumbnail != nil {
		thumbKey := uuid.NewString() + filepath.Ext(in.Thumbnail.FileName)
		thumbURL, err = s.storage.Upload(ctx, s.thumbBucket, thumbKey, in.Thumbnail.Data, in.Thumbnail.MimeType)
		if err != nil {
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
	}

	video := &domain.Video{
		UserID:       in.UserID,
		Title:        in.Title,
		Description:  in.Description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbURL,
		Comments:     []domain.VideoComment{},
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, err
	}
	if err := s.counters.Seed(ctx, video.ID, 0, 0); err != nil {
		s.logger.Warnw("could not seed counters", "video_id", video.ID, "error", err)
	}
	return video, nil
}

func (s *VideoService) Get(ctx context.Context, id int64) (*domain.Video, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VideoService) List(ctx context.Context) ([]*domain.Video, error) {
	return s.repo.List(ctx)
}

type VideoUpdateInput struct {
	Title       *string
	Description *string
	Video       *ImageUpload
	Thumbnail   *ImageUpload
}

// Update replaces metadata and, when new files are supplied, the stored
// objects. Old objects are deleted after the new ones are uploaded.
func (s *VideoService) Update(ctx context.Context, id int64, in VideoUpdateInput) (*domain.Video, error) {
	video, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		video.Title = *in.Title
	}
	if in.Description != nil {
		video.Description = *in.Description
	}
	if in.Video != nil {
		key := uuid.NewString() + filepath.Ext(in.Video.FileName)
		url, err := s.storage.Upload(ctx, s.videoBucket, key, in.Video.Data, in.Video.MimeType)
		if err != nil {
			return nil, fmt.Errorf("upload video: %w", err)
		}
		s.deleteObject(ctx, s.videoBucket, video.VideoURL)
		video.VideoURL = url
	}
	if in.Thumbnail != nil {
		key := uuid.NewString() + filepath.Ext(in.Thumbnail.FileName)
		url, err := s.storage.Upload(ctx, s.thumbBucket, key, in.Thumbnail.Data, in.Thumbnail.MimeType)
		if err != nil {
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
		s.deleteObject(ctx, s.thumbBucket, video.ThumbnailURL)
		video.ThumbnailURL = url
	}

	if err := s.repo.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *VideoService) Delete(ctx context.Context, id int64) error {
	video, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.deleteObject(ctx, s.videoBucket, video.VideoURL)
	s.deleteObject(ctx, s.thumbBucket, video.ThumbnailURL)
	return s.repo.Delete(ctx, id)
}

func (s *VideoService) deleteObject(ctx context.Context, bucket, url string) {
	key := storageKeyFromURL(url)
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, bucket, key); err != nil {
		s.logger.Warnw("could not delete stored object", "bucket", bucket, "key", key, "error", err)
	}
}

// RegisterView bumps the view counter and flushes both counters through
// to the repository.
func (s *VideoService) RegisterView(ctx context.Context, id int64) (int64, error) {
	return s.bump(ctx, ports.CounterViews, id)
}

// RegisterLike bumps the like counter.
func (s *VideoService) RegisterLike(ctx context.Context, id int64) (int64, error) {
	return s.bump(ctx, ports.CounterLikes, id)
}

func (s *VideoService) bump(ctx context.Context, kind ports.CounterKind, id int64) (int64, error) {
	video, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.counters.Seed(ctx, id, video.Views, video.Likes); err != nil {
		return 0, err
	}
	views, likes, err := s.counters.Increment(ctx, kind, id)
	if err != nil {
		return 0, err
	}
	if err := s.repo.SetCounters(ctx, id, views, likes); err != nil {
		return 0, err
	}
	if kind == ports.CounterViews {
		return views, nil
	}
	return likes, nil
}

// AddComment appends a comment to the video's comment list.
func (s *VideoService) AddComment(ctx context.Context, id int64, comment domain.VideoComment) (*domain.Video, error) {
	video, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comment.CreatedAt = time.Now().UTC()
	video.Comments = append(video.Comments, comment)
	if err := s.repo.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}
