package domain

import "time"

type EventStatus string

const (
	EventAvailable EventStatus = "available"
	EventBooked    EventStatus = "booked"
)

// CalendarEvent is a scheduled lesson slot. CallKey is the room key the
// participants use to join the video call for this event.
type CalendarEvent struct {
	ID           int64              `json:"id"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Title        string             `json:"title"`
	Comment      string             `json:"comment,omitempty"`
	CallKey      string             `json:"idLlamada"`
	Status       EventStatus        `json:"status"`
	Participants []EventParticipant `json:"participants,omitempty"`
}

// Overlaps reports whether the event's [start, end) interval intersects
// the given one. Back-to-back events do not overlap.
func (e *CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && e.EndTime.After(start)
}

// EventParticipant links a user to an event with the role they hold in it.
type EventParticipant struct {
	UserID UserID `json:"user_id"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"-"`
}
