package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"aulanet/internal/core/domain"
)

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	comments, err := json.Marshal(video.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (user_id, title, description, video_url, thumbnail_url, likes, views, comments, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		video.UserID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.Likes, video.Views, string(comments), fmtTime(video.UploadedAt))
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert video id: %w", err)
	}
	video.ID = id
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, video_url, thumbnail_url, likes, views, comments, uploaded_at
		 FROM videos WHERE id = ?`, id)
	return scanVideo(row.Scan)
}

func scanVideo(scan func(...interface{}) error) (*domain.Video, error) {
	var video domain.Video
	var comments, uploadedAt string
	err := scan(&video.ID, &video.UserID, &video.Title, &video.Description, &video.VideoURL,
		&video.ThumbnailURL, &video.Likes, &video.Views, &comments, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan video: %w", err)
	}
	if err := json.Unmarshal([]byte(comments), &video.Comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	if video.UploadedAt, err = parseTime(uploadedAt); err != nil {
		return nil, fmt.Errorf("parse video uploaded_at: %w", err)
	}
	return &video, nil
}

func (r *VideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, video_url, thumbnail_url, likes, views, comments, uploaded_at
		 FROM videos ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, video)
	}
	return out, rows.Err()
}

func (r *VideoRepository) Update(ctx context.Context, video *domain.Video) error {
	comments, err := json.Marshal(video.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET title = ?, description = ?, video_url = ?, thumbnail_url = ?, likes = ?, views = ?, comments = ?
		 WHERE id = ?`,
		video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.Likes, video.Views, string(comments), video.ID)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if n == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *VideoRepository) SetCounters(ctx context.Context, id int64, views, likes int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET views = ?, likes = ? WHERE id = ?`, views, likes, id)
	if err != nil {
		return fmt.Errorf("set counters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set counters: %w", err)
	}
	if n == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}
