package domain

import "time"

type UserID int64

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type User struct {
	ID             UserID    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	IsAdmin        bool      `json:"is_admin"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TeacherProfile is a teacher row annotated with the number of videos
// they have published.
type TeacherProfile struct {
	User
	VideoCount int64 `json:"videos_count"`
}
