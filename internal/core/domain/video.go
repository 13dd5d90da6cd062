package domain

import "time"

type Video struct {
	ID           int64          `json:"id"`
	UserID       UserID         `json:"user_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	VideoURL     string         `json:"video_url"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	Likes        int64          `json:"likes"`
	Views        int64          `json:"views"`
	Comments     []VideoComment `json:"comments"`
	UploadedAt   time.Time      `json:"uploaded_at"`
}

type VideoComment struct {
	UserID    UserID    `json:"user_id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
