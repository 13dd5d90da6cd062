package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrChatNotFound       = errors.New("chat not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrVideoNotFound      = errors.New("video not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrScheduleOverlap    = errors.New("event overlaps an existing booking")
	ErrInvalidTimeRange   = errors.New("start time must be before end time")
	ErrRoleComposition    = errors.New("participants must include at least one teacher and one student")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
)
